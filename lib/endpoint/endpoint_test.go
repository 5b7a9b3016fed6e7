package endpoint

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefault(t *testing.T) {
	table := Default()

	tests := []struct {
		name   string
		op     Operation
		params Params
		want   string
	}{
		{"get one", GetMotorcycle, Params{"id": "abc"}, "/store/motorcycle/abc"},
		{"list", ListMotorcycles, Params{"show_sold": "true"}, "/store/motorcycles?show_sold=true"},
		{"list empty query value", ListMotorcycles, Params{"show_sold": ""}, "/store/motorcycles?show_sold="},
		{"create has no placeholders", CreateMotorcycle, nil, "/store/motorcycle"},
		{"extra params ignored", UserLogin, Params{"id": "x"}, "/login"},
		{"path value escaped", DeleteMotorcycle, Params{"id": "a/b c"}, "/store/motorcycle/a%2Fb%20c"},
		{"query value escaped", ListMotorcycles, Params{"show_sold": "a&b"}, "/store/motorcycles?show_sold=a%26b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Resolve(tt.op, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveMissingParam(t *testing.T) {
	table := Default()

	_, err := table.Resolve(GetMotorcycle, Params{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingParam))

	var mp *MissingParamError
	require.True(t, errors.As(err, &mp))
	assert.Equal(t, "id", mp.Name)
	assert.Equal(t, GetMotorcycle, mp.Op)

	_, err = table.Resolve(GetMotorcycle, Params{"id": ""})
	assert.ErrorIs(t, err, ErrMissingParam, "empty path segment is treated as missing")
}

func TestResolveUnknownOperation(t *testing.T) {
	_, err := Table{}.Resolve(GetMotorcycle, Params{"id": "1"})
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestPlaceholders(t *testing.T) {
	table := Table{"X": "/a/{one}/b/{two}?q={three}"}
	names, err := table.Placeholders("X")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, names)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	bad := []string{
		"store/motorcycle",
		"/store/{id",
		"/store/id}",
		"/store/{}",
		"/store/{a/b}",
	}
	for _, tmpl := range bad {
		t.Run(tmpl, func(t *testing.T) {
			err := Table{GetMotorcycle: tmpl}.Validate()
			assert.ErrorIs(t, err, ErrBadTemplate)
		})
	}
}

func TestWith(t *testing.T) {
	base := Default()
	out, err := base.With(map[string]string{"get_motorcycle": "/api/v1/motorcycles/{id}"})
	require.NoError(t, err)

	got, err := out.Resolve(GetMotorcycle, Params{"id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/motorcycles/7", got)
	assert.Equal(t, "/store/motorcycle/{id}", base[GetMotorcycle], "base table must not change")

	_, err = base.With(map[string]string{"NOPE": "/x"})
	assert.ErrorIs(t, err, ErrUnknownOperation)

	_, err = base.With(map[string]string{"GET_MOTORCYCLE": "/x/{id"})
	assert.ErrorIs(t, err, ErrBadTemplate)
}

func TestOperationsSorted(t *testing.T) {
	ops := Default().Operations()
	require.Len(t, ops, 7)
	for i := 1; i < len(ops); i++ {
		assert.Less(t, string(ops[i-1]), string(ops[i]))
	}
}
