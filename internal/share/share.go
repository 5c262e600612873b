// Package share packs a generated worksheet into a URL-safe token and back,
// so a student can open it without the server storing anything.
package share

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/worksheet-gen/backend/internal/models"
)

var ErrInvalidLink = errors.New("invalid worksheet link")

var validate = validator.New()

// Payload is what a share link carries.
type Payload struct {
	Settings models.Settings  `json:"settings"`
	Problems []models.Problem `json:"problems"`
}

// Encode serializes p as unpadded base64url JSON.
func Encode(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal worksheet: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode reverses Encode and rebuilds the cipher from the keyed problems.
// Padded and standard-alphabet tokens are accepted too.
func Decode(token string) (Payload, models.CipherMap, error) {
	data, err := decodeBase64(strings.TrimSpace(token))
	if err != nil {
		return Payload{}, models.CipherMap{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, models.CipherMap{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	if err := validate.Struct(p.Settings); err != nil {
		return Payload{}, models.CipherMap{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	if len(p.Problems) == 0 {
		return Payload{}, models.CipherMap{}, fmt.Errorf("%w: no problems", ErrInvalidLink)
	}

	cipher, err := CipherFromProblems(p.Problems)
	if err != nil {
		return Payload{}, models.CipherMap{}, err
	}
	return p, cipher, nil
}

// CipherFromProblems maps each keyed problem's letter to its answer. A letter
// keyed to two different answers, or an answer that does not follow from
// its operands, makes the link invalid.
func CipherFromProblems(problems []models.Problem) (models.CipherMap, error) {
	cipher := models.NewCipherMap()
	for i, p := range problems {
		if !p.Operation.Valid() {
			return models.CipherMap{}, fmt.Errorf("%w: problem %d has operation %q", ErrInvalidLink, i+1, p.Operation)
		}
		if got, ok := p.Operation.Apply(p.FirstOperand, p.SecondOperand); !ok || got != p.Answer {
			return models.CipherMap{}, fmt.Errorf("%w: problem %d is not %s", ErrInvalidLink, i+1, p)
		}
		if !p.Keyed() || p.Answer == 0 {
			continue
		}
		if prev, seen := cipher.Values[p.Letter]; seen {
			if prev != p.Answer {
				return models.CipherMap{}, fmt.Errorf("%w: letter %s keyed to %d and %d", ErrInvalidLink, p.Letter, prev, p.Answer)
			}
			continue
		}
		cipher.Values[p.Letter] = p.Answer
		cipher.Letters = append(cipher.Letters, p.Letter)
	}
	return cipher, nil
}

// URL builds the student link under baseURL.
func URL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/student?data=" + url.QueryEscape(token)
}

func decodeBase64(token string) ([]byte, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}
	for _, enc := range []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.StdEncoding,
		base64.RawStdEncoding,
	} {
		if data, err := enc.DecodeString(token); err == nil {
			return data, nil
		}
	}
	return nil, errors.New("token is not base64")
}
