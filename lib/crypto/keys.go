package crypto

import (
	"encoding/json"
	"os"
)

// PrivateKeyToFile() writes a private key to a json key file
func PrivateKeyToFile(key PrivateKeyI, filepath string) error {
	bz, err := json.MarshalIndent(key, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, bz, 0777)
}

// NewBLSPrivateKeyFromFile() reads a BLS private key from a json key file
func NewBLSPrivateKeyFromFile(filepath string) (PrivateKeyI, error) {
	bz, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	key := new(BLS12381PrivateKey)
	if err = json.Unmarshal(bz, key); err != nil {
		return nil, err
	}
	return key, nil
}
