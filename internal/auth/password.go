package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost はパスワードハッシュの計算コスト。
// 低速であることが前提の意図的な設定値。
const bcryptCost = 12

// HashPassword はパスワードをbcryptでハッシュ化する。
// ソルトはbcryptが生成しハッシュ文字列に内包される。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword は保存済みハッシュとパスワードを照合する。
// bcrypt.CompareHashAndPasswordは一致判定を定数時間で行う。
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
