package pdftext

import (
	"errors"
	"reflect"
	"testing"
)

func TestParsePageSelection(t *testing.T) {
	tests := []struct {
		expr    string
		total   int
		want    []int
		wantErr error
	}{
		{expr: "", total: 10, want: nil},
		{expr: "1-3,5", total: 10, want: []int{1, 2, 3, 5}},
		{expr: " 5 , 1-2 ,2", total: 10, want: []int{1, 2, 5}},
		{expr: "1-15", total: 40, want: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
		{expr: "1-16", total: 40, wantErr: ErrTooManyPages},
		{expr: "1-10,20-25", total: 40, wantErr: ErrTooManyPages},
		{expr: "0", total: 10, wantErr: ErrInvalidPageRange},
		{expr: "3-1", total: 10, wantErr: ErrInvalidPageRange},
		{expr: "11", total: 10, wantErr: ErrInvalidPageRange},
		{expr: "a-b", total: 10, wantErr: ErrInvalidPageRange},
		{expr: "1,,2", total: 10, wantErr: ErrInvalidPageRange},
	}
	for _, tt := range tests {
		got, err := ParsePageSelection(tt.expr, tt.total)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParsePageSelection(%q) err = %v, want %v", tt.expr, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePageSelection(%q) unexpected error: %v", tt.expr, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("ParsePageSelection(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}
