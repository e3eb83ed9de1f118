package game

import (
	"crypto/rand"
	"math/big"
)

const (
	RoomCodeLength = 5
	RoomCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type CodeGenerator interface {
	Generate() (string, error)
}

type RandomCodes struct{}

func (RandomCodes) Generate() (string, error) {
	code := make([]byte, RoomCodeLength)
	limit := big.NewInt(int64(len(RoomCodeChars)))
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code[i] = RoomCodeChars[n.Int64()]
	}
	return string(code), nil
}
