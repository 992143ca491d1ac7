//go:build !picc_assert

package utils

func AssertFinite(what string, vs ...float64) {}
