package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var errNoPrincipal = errors.New("no caller principal on request")

// resolvePrincipal extracts the caller identity for command routes. With a
// signing key configured, a bearer token's subject claim wins; otherwise the
// X-Principal-Id header carries the identity for development wiring.
func (s *Server) resolvePrincipal(r *http.Request) (string, error) {
	if s.jwtKey != "" {
		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		if after, found := strings.CutPrefix(raw, "Bearer "); found {
			return s.subjectFromToken(strings.TrimSpace(after))
		}
	}
	if principal := strings.TrimSpace(r.Header.Get("X-Principal-Id")); principal != "" {
		return principal, nil
	}
	return "", errNoPrincipal
}

func (s *Server) subjectFromToken(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected token signing method")
		}
		return []byte(s.jwtKey), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(subject) == "" {
		return "", errNoPrincipal
	}
	return subject, nil
}
