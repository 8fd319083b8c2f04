package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_Zero(t *testing.T) {
	var v Value
	assert.False(t, v.IsSet())
	assert.Equal(t, "", v.Format())
	assert.Nil(t, v.Interface())
	assert.True(t, v.Equal(Value{}))
}

func TestSet_SortsAndDeduplicates(t *testing.T) {
	v := Set("mac", "linux", "mac", "")
	assert.Equal(t, []string{"linux", "mac"}, v.Members())
	assert.Equal(t, "linux,mac", v.Format())
	assert.True(t, v.Has("mac"))
	assert.False(t, v.Has("windows"))

	assert.False(t, Set().IsSet())
	assert.False(t, Set("").IsSet())
}

func TestValue_Members_ReturnsCopy(t *testing.T) {
	v := Set("a", "b")
	m := v.Members()
	m[0] = "z"
	assert.Equal(t, []string{"a", "b"}, v.Members())
}

func TestValue_Union(t *testing.T) {
	got := Set("linux").Union(Set("windows", "linux"))
	assert.Equal(t, []string{"linux", "windows"}, got.Members())

	assert.Equal(t, []string{"mac"}, Value{}.Union(Set("mac")).Members())
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Number(1).Equal(Number(1)))
	assert.False(t, Number(1).Equal(Number(2)))
	assert.False(t, Number(1).Equal(String("1")))
	assert.True(t, Bool(false).Equal(Bool(false)))
	assert.False(t, Bool(false).Equal(Value{}))
	assert.True(t, Set("b", "a").Equal(Set("a", "b")))
}

func TestValue_Format(t *testing.T) {
	assert.Equal(t, "1000", Number(1000).Format())
	assert.Equal(t, "1.5", Number(1.5).Format())
	assert.Equal(t, "true", Bool(true).Format())
	assert.Equal(t, "verified", String("verified").Format())
}
