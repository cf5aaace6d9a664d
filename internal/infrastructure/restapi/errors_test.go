package restapi

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/storefront/internal/core/domain"
)

func TestDecodeError_Message(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail wins", `{"email":["bad"],"error":"e","detail":"d"}`, "d"},
		{"error before fields", `{"email":["bad"],"error":"Your cart is empty."}`, "Your cart is empty."},
		{"first field in document order", `{"password":["too short"],"email":["taken"]}`, "too short"},
		{"field as plain string", `{"old_password":"Wrong password."}`, "Wrong password."},
		{"non field errors list", `{"non_field_errors":["Missing required shipping fields: shipping_city"]}`, "Missing required shipping fields: shipping_city"},
		{"nested object", `{"quantity":{"value":["Only 2 items available in stock."]}}`, "Only 2 items available in stock."},
		{"empty object", `{}`, domain.DefaultErrorMessage},
		{"not json", `<html>Bad Gateway</html>`, domain.DefaultErrorMessage},
		{"json array", `["x"]`, domain.DefaultErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeError(http.StatusBadRequest, []byte(tt.body))
			assert.Equal(t, tt.want, err.Error())
			assert.True(t, errors.Is(err, domain.ErrRequestFailed))
		})
	}
}

func TestDecodeError_FieldsMakeValidationError(t *testing.T) {
	err := decodeError(http.StatusBadRequest, []byte(`{"email":["user with this email already exists."],"password":["This password is too common."]}`))

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"This password is too common."}, ve.Fields["password"])
	assert.Equal(t, "user with this email already exists.", ve.FieldMessage("email"))
	assert.Equal(t, http.StatusBadRequest, domain.StatusOf(err))
}

func TestDecodeError_DetailOnlyIsPlainRequestError(t *testing.T) {
	err := decodeError(http.StatusNotFound, []byte(`{"detail":"Not found."}`))

	assert.False(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, http.StatusNotFound, domain.StatusOf(err))
}
