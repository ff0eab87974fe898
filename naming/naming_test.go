package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/domgen/dialect"
)

func TestSnake(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Username", "username"},
		{"FullName", "full_name"},
		{"HTTPCode", "http_code"},
		{"UserID", "user_id"},
		{"XMLParser", "xml_parser"},
		{"already_snake", "already_snake"},
		{"A", "a"},
		{"", ""},
		{"userInfo", "user_info"},
		{"order-line", "order_line"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Snake(tt.input))
		})
	}
}

func TestPascal(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"user_info", "UserInfo"},
		{"user_id", "UserID"},
		{"id", "ID"},
		{"full-admin", "FullAdmin"},
		{"already", "Already"},
		{"OrderLine", "OrderLine"},
		{"xml_parser", "XMLParser"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Pascal(tt.input))
		})
	}
}

func TestCamel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"user_info", "userInfo"},
		{"user_id", "userID"},
		{"ID", "id"},
		{"UserName", "userName"},
		{"a", "a"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Camel(tt.input))
		})
	}
}

func TestPluralize(t *testing.T) {
	for in, want := range map[string]string{
		"User":     "Users",
		"Category": "Categories",
		"Address":  "Addresses",
	} {
		assert.Equal(t, want, Pluralize(in), in)
		assert.Equal(t, in, Singularize(want), want)
	}
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Order Line", Humanize("OrderLine"))
	assert.Equal(t, "Order Line", Humanize("order_line"))
	assert.Equal(t, "CUSTOMER_ID", Constant("CustomerID"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "dboUser", Sanitize("[dbo].[User]"))
	assert.Equal(t, "ab", Sanitize("a:b"))
}

func TestQuote(t *testing.T) {
	tests := []struct {
		dialect  string
		input    string
		expected string
	}{
		{dialect.MSSQL, "User", "[User]"},
		{dialect.MSSQL, "a]b", "[a]]b]"},
		{dialect.Postgres, "User", `"User"`},
		{dialect.Postgres, `a"b`, `"a""b"`},
		{dialect.MySQL, "User", "`User`"},
		{dialect.SQLite, "a`b", "`a``b`"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Quote(tt.dialect, tt.input))
		})
	}
	assert.Equal(t, "[dbo].[User]", QuoteQualified(dialect.MSSQL, "dbo", "User"))
	assert.Equal(t, "`User`", QuoteQualified(dialect.MySQL, "", "User"))
	assert.Equal(t, "'it''s'", Literal("it's"))
}

func TestAddAcronym(t *testing.T) {
	AddAcronym("domgen")
	assert.Equal(t, "DOMGENTest", Pascal("domgen_test"))
}
