package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadProducts(t *testing.T) {
	products, err := readProducts(strings.NewReader(`[
		{"sku":"A","name":"Tee","price":"19.99","stock":3,"categories":["Apparel","Summer Sale!!"]},
		{"sku":"B","name":"Mug","price":"9.99","stock":1,"categories":["Kitchen","Apparel"]}
	]`))
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "19.99", products[0].Price.String())
	assert.Equal(t, []string{"Apparel", "Summer Sale!!", "Kitchen"}, categoryNames(products))
}

func TestReadProducts_Invalid(t *testing.T) {
	_, err := readProducts(strings.NewReader(`[{"sku":"A","price":"1"}]`))
	require.Error(t, err)

	_, err = readProducts(strings.NewReader(`{"not":"a list"}`))
	require.Error(t, err)
}

func TestDefaultCouponsValid(t *testing.T) {
	for _, c := range defaultCoupons {
		assert.NoError(t, c.Validate(), c.Code)
	}
}
