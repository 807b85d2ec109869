package auth

import (
	"github.com/dperea/storefront-backend/pkg/enums"
	"github.com/dperea/storefront-backend/pkg/oid"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID oid.ID
	Role   enums.Role
	JTI    string
}

// AccessTokenClaims is the JWT claim set carried by every request.
type AccessTokenClaims struct {
	UserID oid.ID     `json:"uid"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}
