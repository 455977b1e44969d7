package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/inventario-movimientos/pkg/jwt"
)

const (
	secret    = "test-secret-key-for-unit-tests"
	userID    = "00000000-0000-0000-0000-000000000001"
	companyID = "00000000-0000-0000-0000-000000000002"
	branchID  = "00000000-0000-0000-0000-000000000003"
)

func TestGenerateAndParse_ConSucursalYRol(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, userID, companyID, branchID, "bodeguero", "test", 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := pkgjwt.Parse(secret, tok)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, companyID, claims.CompanyID)
	assert.Equal(t, branchID, claims.BranchID)
	assert.Equal(t, "bodeguero", claims.Role)
	assert.Equal(t, "test", claims.Issuer)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, userID, companyID, "", "admin", "test", -1)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(secret, tok)
	assert.Error(t, err, "token expirado debe retornar error")
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, userID, companyID, "", "admin", "test", 60)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secret-completamente-distinto", tok)
	assert.Error(t, err, "secret incorrecto debe invalidar el token")
}

func TestGenerate_SinSecret(t *testing.T) {
	_, err := pkgjwt.Generate("", userID, companyID, "", "admin", "test", 60)
	assert.Error(t, err)
}
