package util

import (
	"testing"
	"time"
)

// TestParseDate_Valid 测试有效日期
func TestParseDate_Valid(t *testing.T) {
	testCases := map[string]time.Time{
		"2024-01-01": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"2024-12-31": time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		"2025-06-15": time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	}

	for in, want := range testCases {
		got, err := ParseDate(in)
		if err != nil {
			t.Errorf("ParseDate(%q) error = %v, want nil", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}
}

// TestParseDate_InvalidFormat 测试无效格式（异常）
func TestParseDate_InvalidFormat(t *testing.T) {
	testCases := []string{
		"",
		"2024/01/01",
		"01-01-2024",
		"2024-1-1",
		"not-a-date",
		"2024-13-01", // 月份错误
		"2024-01-32", // 日期错误
	}

	for _, date := range testCases {
		if _, err := ParseDate(date); err == nil {
			t.Errorf("ParseDate(%q) error = nil, want error", date)
		}
	}
}

func TestParseOptionalDate(t *testing.T) {
	got, err := ParseOptionalDate("")
	if err != nil || got != nil {
		t.Errorf("ParseOptionalDate(\"\") = %v, %v; want nil, nil", got, err)
	}
	got, err = ParseOptionalDate("2023-02-02")
	if err != nil || got == nil || got.Day() != 2 {
		t.Errorf("ParseOptionalDate(2023-02-02) = %v, %v", got, err)
	}
	if _, err := ParseOptionalDate("bad"); err == nil {
		t.Error("ParseOptionalDate(bad) error = nil, want error")
	}
}

func TestTruncateDay(t *testing.T) {
	in := time.Date(2023, 5, 6, 23, 59, 1, 5, time.FixedZone("X", 3600))
	got := TruncateDay(in)
	want := time.Date(2023, 5, 6, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("TruncateDay = %v, want %v", got, want)
	}
}

// TestValidateMonth 月份边界
func TestValidateMonth(t *testing.T) {
	for _, m := range []int{1, 6, 12} {
		if err := ValidateMonth(m); err != nil {
			t.Errorf("ValidateMonth(%d) error = %v, want nil", m, err)
		}
	}
	for _, m := range []int{0, 13, -1} {
		if err := ValidateMonth(m); err == nil {
			t.Errorf("ValidateMonth(%d) error = nil, want error", m)
		}
	}
}

func TestContainsPattern(t *testing.T) {
	testCases := map[string]string{
		"milk":   "%milk%",
		"50%":    `%50\%%`,
		"a_b":    `%a\_b%`,
		`c:\tmp`: `%c:\\tmp%`,
		"%":      `%\%%`,
	}
	for in, want := range testCases {
		if got := ContainsPattern(in); got != want {
			t.Errorf("ContainsPattern(%q) = %q, want %q", in, got, want)
		}
	}
}
