// FILE: logfan/src/internal/redact/redact_test.go
package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	t.Run("TopLevelKey", func(t *testing.T) {
		params := map[string]any{"password": "hunter2", "user": "alice"}

		clone, hit := Apply(params, []string{"password"})
		require.NotNil(t, clone)
		assert.Equal(t, []string{"password"}, hit)
		assert.Equal(t, Placeholder, clone["password"])
		assert.Equal(t, "alice", clone["user"])

		// Input tree must never be touched
		assert.Equal(t, "hunter2", params["password"])
	})

	t.Run("DottedPath", func(t *testing.T) {
		params := map[string]any{
			"auth": map[string]any{"token": "abc", "scheme": "bearer"},
		}

		clone, hit := Apply(params, []string{"auth.token"})
		require.NotNil(t, clone)
		assert.Equal(t, []string{"auth.token"}, hit)

		inner := clone["auth"].(map[string]any)
		assert.Equal(t, Placeholder, inner["token"])
		assert.Equal(t, "bearer", inner["scheme"])
		assert.Equal(t, "abc", params["auth"].(map[string]any)["token"])
	})

	t.Run("NoMatchReturnsNil", func(t *testing.T) {
		params := map[string]any{"user": "alice"}

		clone, hit := Apply(params, []string{"password", "auth.token"})
		assert.Nil(t, clone)
		assert.Nil(t, hit)
	})

	t.Run("PathThroughNonMapIsNoMatch", func(t *testing.T) {
		params := map[string]any{"auth": "opaque"}

		clone, hit := Apply(params, []string{"auth.token"})
		assert.Nil(t, clone)
		assert.Nil(t, hit)
	})

	t.Run("EmptyInputs", func(t *testing.T) {
		clone, hit := Apply(nil, []string{"password"})
		assert.Nil(t, clone)
		assert.Nil(t, hit)

		clone, hit = Apply(map[string]any{"a": 1}, nil)
		assert.Nil(t, clone)
		assert.Nil(t, hit)
	})

	t.Run("MultipleKeysSorted", func(t *testing.T) {
		params := map[string]any{
			"token":    "t",
			"password": "p",
			"user":     "alice",
		}

		clone, hit := Apply(params, []string{"token", "password"})
		require.NotNil(t, clone)
		assert.Equal(t, []string{"password", "token"}, hit)
		assert.Equal(t, Placeholder, clone["token"])
		assert.Equal(t, Placeholder, clone["password"])
		assert.Equal(t, "alice", clone["user"])
	})

	t.Run("DuplicateKeysReportedOnce", func(t *testing.T) {
		params := map[string]any{"password": "p"}

		_, hit := Apply(params, []string{"password", "password"})
		assert.Equal(t, []string{"password"}, hit)
	})

	t.Run("MixOfHitAndMiss", func(t *testing.T) {
		params := map[string]any{"password": "p", "user": "alice"}

		clone, hit := Apply(params, []string{"missing", "password", "user.name"})
		require.NotNil(t, clone)
		assert.Equal(t, []string{"password"}, hit)
		assert.Equal(t, Placeholder, clone["password"])
	})

	t.Run("SiblingBranchesSurviveMultipleHits", func(t *testing.T) {
		params := map[string]any{
			"a": map[string]any{"secret": "s1", "keep": 1},
			"b": map[string]any{"secret": "s2", "keep": 2},
		}

		clone, hit := Apply(params, []string{"a.secret", "b.secret"})
		require.NotNil(t, clone)
		assert.Equal(t, []string{"a.secret", "b.secret"}, hit)
		assert.Equal(t, Placeholder, clone["a"].(map[string]any)["secret"])
		assert.Equal(t, Placeholder, clone["b"].(map[string]any)["secret"])
		assert.Equal(t, 1, clone["a"].(map[string]any)["keep"])
		assert.Equal(t, 2, clone["b"].(map[string]any)["keep"])
	})
}

func TestFunc(t *testing.T) {
	t.Run("BindsKeys", func(t *testing.T) {
		fn := Func("password")

		clone, hit := fn(map[string]any{"password": "p", "user": "u"})
		require.NotNil(t, clone)
		assert.Equal(t, []string{"password"}, hit)
		assert.Equal(t, Placeholder, clone["password"])
	})

	t.Run("NoKeys", func(t *testing.T) {
		fn := Func()

		clone, hit := fn(map[string]any{"password": "p"})
		assert.Nil(t, clone)
		assert.Nil(t, hit)
	})
}
