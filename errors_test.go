package domgen_test

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/domgen"
)

func TestConfigError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := domgen.NewConfigError(domgen.KindUnresolved, "Core.User", "email", "query parameter %q does not match an attribute", "email")
		assert.Equal(t, `domgen: Core.User: query parameter "email" does not match an attribute`, err.Error())
	})

	t.Run("WithoutOwner", func(t *testing.T) {
		err := domgen.NewConfigError(domgen.KindDuplicate, "", "Core", "schema %q declared more than once", "Core")
		assert.Equal(t, `domgen: schema "Core" declared more than once`, err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := domgen.DuplicateError("Core.User", "attribute", "id")
		assert.True(t, errors.Is(err, domgen.ErrInvalidSchema))
		assert.False(t, errors.Is(err, domgen.ErrGenerationFailed))
		assert.Equal(t, "id", err.Name)
		assert.Equal(t, domgen.KindDuplicate, err.Kind)
	})

	t.Run("Wrapped", func(t *testing.T) {
		err := fmt.Errorf("build: %w", domgen.DuplicateError("Core", "object type", "User"))
		assert.True(t, domgen.IsConfigError(err))
		kind, ok := domgen.ConfigErrorKind(err)
		require.True(t, ok)
		assert.Equal(t, domgen.KindDuplicate, kind)
	})

	t.Run("Cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := &domgen.ConfigError{Kind: domgen.KindInvalidOption, Message: "bad", Cause: cause}
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "domgen: bad: boom", err.Error())
	})

	t.Run("NotConfigError", func(t *testing.T) {
		assert.False(t, domgen.IsConfigError(errors.New("other")))
		assert.False(t, domgen.IsConfigError(nil))
		_, ok := domgen.ConfigErrorKind(errors.New("other"))
		assert.False(t, ok)
	})
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "multiple clustering indexes", domgen.KindMultipleClusters.String())
	assert.Equal(t, "unknown query type", domgen.KindUnknownQueryType.String())
	assert.Equal(t, "ErrorKind(200)", domgen.ErrorKind(200).String())
}

func TestGenerationError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := domgen.NewGenerationError("sql/ddl", "out/schema.sql", "write file", os.ErrPermission)
		assert.Equal(t, `domgen: generate "sql/ddl" (out/schema.sql): write file: permission denied`, err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := domgen.NewGenerationError("t", "", "", nil)
		assert.True(t, errors.Is(err, domgen.ErrGenerationFailed))
		assert.False(t, errors.Is(err, domgen.ErrInvalidSchema))
		assert.Equal(t, `domgen: generate "t"`, err.Error())
	})

	t.Run("IsGenerationError", func(t *testing.T) {
		err := fmt.Errorf("wrapper: %w", domgen.NewGenerationError("t", "p", "m", os.ErrNotExist))
		assert.True(t, domgen.IsGenerationError(err))
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.False(t, domgen.IsGenerationError(errors.New("other")))
	})
}
