// Package secrets cifra las credenciales SUNAT que se guardan en la tabla clave.
// Formato en reposo: base64( IV(16) || AES-256-CBC(valor, PKCS#7) ).
package secrets

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Cipher cifra y descifra valores con una clave AES-256 fija de la aplicación.
type Cipher struct {
	key []byte
}

// New construye el Cipher desde la clave en hex (64 caracteres = 32 bytes).
func New(hexKey string) (*Cipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("secrets: clave AES no es hex válido: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("secrets: la clave debe tener 32 bytes (AES-256), tiene %d", len(key))
	}
	return &Cipher{key: key}, nil
}

// Encrypt cifra el valor en claro y devuelve base64(IV || ciphertext).
func (c *Cipher) Encrypt(plain string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("secrets: NewCipher: %w", err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("secrets: generar IV: %w", err)
	}

	padded := pkcs7Pad([]byte(plain), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return base64.StdEncoding.EncodeToString(append(iv, out...)), nil
}

// Decrypt deshace Encrypt: decodifica base64, separa el IV y valida el padding.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("secrets: base64 inválido: %w", err)
	}
	if len(raw) < aes.BlockSize*2 || len(raw)%aes.BlockSize != 0 {
		return "", fmt.Errorf("secrets: longitud de ciphertext inválida: %d", len(raw))
	}
	iv, ciphertext := raw[:aes.BlockSize], raw[aes.BlockSize:]

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("secrets: NewCipher: %w", err)
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	unpadded, err := pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("secrets: %w", err)
	}
	return string(unpadded), nil
}

func pkcs7Pad(src []byte, blockSize int) []byte {
	padLen := blockSize - (len(src) % blockSize)
	if padLen == 0 {
		padLen = blockSize
	}
	return append(src, bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

func pkcs7Unpad(src []byte, blockSize int) ([]byte, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("datos vacíos tras descifrar")
	}
	pad := int(src[len(src)-1])
	if pad <= 0 || pad > blockSize || pad > len(src) {
		return nil, fmt.Errorf("padding inválido")
	}
	for i := 0; i < pad; i++ {
		if src[len(src)-1-i] != byte(pad) {
			return nil, fmt.Errorf("padding inválido")
		}
	}
	return src[:len(src)-pad], nil
}
