package execution

import (
	"math"
	"strconv"
	"strings"
	"testing"
)

func TestFormatQuantity_NoExponent(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0.001, "0.001"},
		{1.17e-05, "0.0000117"},
		{0.0000001, "0.0000001"},
		{0.5, "0.5"},
		{1.0, "1"},
		{123.4500000, "123.45"},
		{0, "0"},
	}

	for _, tc := range cases {
		got := FormatQuantity(tc.in)
		if got != tc.want {
			t.Errorf("FormatQuantity(%v) = %q, want %q", tc.in, got, tc.want)
		}
		if strings.ContainsAny(got, "eE") {
			t.Errorf("FormatQuantity(%v) = %q contains exponent", tc.in, got)
		}
	}
}

func TestFormatQuantity_RoundTripWithinTolerance(t *testing.T) {
	values := []float64{0.0000117, 0.001, 0.0025, 0.1234567, 0.9999999, 0.5}

	for _, v := range values {
		formatted := FormatQuantity(v)
		parsed, err := strconv.ParseFloat(formatted, 64)
		if err != nil {
			t.Fatalf("parse %q failed: %v", formatted, err)
		}
		if math.Abs(parsed-v) > 1e-7 {
			t.Errorf("round trip drift for %v: got %v", v, parsed)
		}
	}
}

func TestNormalizeQuantity(t *testing.T) {
	if got := NormalizeQuantity("0.0010000"); got != "0.001" {
		t.Errorf("NormalizeQuantity(\"0.0010000\") = %q, want \"0.001\"", got)
	}
	// 幂等：格式化结果再格式化不变
	if got := NormalizeQuantity(FormatQuantity(0.0000117)); got != "0.0000117" {
		t.Errorf("NormalizeQuantity not idempotent: %q", got)
	}
	// 非数字输入原样返回
	if got := NormalizeQuantity("abc"); got != "abc" {
		t.Errorf("NormalizeQuantity(\"abc\") = %q, want passthrough", got)
	}
}

func TestQuantityArg_IntegerAboveOne(t *testing.T) {
	if got := QuantityArg(2.7); got != "2" {
		t.Errorf("QuantityArg(2.7) = %q, want \"2\"", got)
	}
	if got := QuantityArg(1); got != "1" {
		t.Errorf("QuantityArg(1) = %q, want \"1\"", got)
	}
	if got := QuantityArg(0.001); got != "0.001" {
		t.Errorf("QuantityArg(0.001) = %q, want \"0.001\"", got)
	}
}
