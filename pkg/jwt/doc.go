// Package jwt implements RS256 JSON Web Token signing and validation.
//
// Lattice issues short-lived access tokens signed with an RSA key pair.
// Refresh tokens are opaque random values handled elsewhere; this package
// only deals with the signed access token.
//
// # Usage
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "./keys/private.pem",
//	    PublicKeyPath:  "./keys/public.pem",
//	    Issuer:         "api.latticekit.dev",
//	    ExpirationMins: 15,
//	})
//
//	token, err := svc.Sign(jwt.Claims{Subject: userID, Role: "user"})
//	claims, err := svc.Validate(token)
//
// A service constructed with only a public key can validate but not sign,
// which suits read-only verifiers.
//
// # Errors
//
// Validation failures return sentinel errors (ErrTokenExpired,
// ErrInvalidSignature, ErrInvalidToken) checkable with errors.Is().
package jwt
