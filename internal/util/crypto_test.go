package util

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// ============ 密码哈希测试 ============

func TestHashPassword(t *testing.T) {
	password := "MyPassword123"

	hashed, err := HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("哈希失败: %v", err)
	}
	if !strings.HasPrefix(hashed, "$2") {
		t.Errorf("哈希格式错误，应为 bcrypt: %s", hashed)
	}

	// 测试空密码
	if _, err := HashPassword("", bcrypt.MinCost); err == nil {
		t.Error("空密码应返回错误")
	}

	// 测试相同密码生成不同哈希
	hashed2, _ := HashPassword(password, bcrypt.MinCost)
	if hashed == hashed2 {
		t.Error("相同密码应生成不同哈希（随机salt）")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "TestPass456"
	hashed, _ := HashPassword(password, bcrypt.MinCost)

	if !CheckPassword(password, hashed) {
		t.Error("正确密码验证失败")
	}
	if CheckPassword("WrongPass", hashed) {
		t.Error("错误密码不应通过验证")
	}
	if CheckPassword("", hashed) {
		t.Error("空密码不应通过验证")
	}
	if CheckPassword(password, "") {
		t.Error("空哈希不应通过验证")
	}
	if CheckPassword(password, "invalid-format") {
		t.Error("无效格式不应通过验证")
	}
}

// ============ AES 加密测试 ============

func TestEncryptDecryptAES(t *testing.T) {
	key := "test-encryption-key"

	testCases := []string{
		"Hello World",
		"中文测试",
		"",
		"Special!@#$%^&*()",
		strings.Repeat("A", 1000),
	}

	for _, plaintext := range testCases {
		encrypted, err := EncryptAES(key, []byte(plaintext))
		if err != nil {
			t.Fatalf("加密失败 '%s': %v", plaintext, err)
		}

		decrypted, err := DecryptAES(key, encrypted)
		if err != nil {
			t.Fatalf("解密失败 '%s': %v", plaintext, err)
		}

		if string(decrypted) != plaintext {
			t.Errorf("数据不匹配\n期望: %s\n实际: %s", plaintext, string(decrypted))
		}
	}
}

func TestDecryptAES_WrongKey(t *testing.T) {
	encrypted, err := EncryptAES("key-1", []byte("secret"))
	if err != nil {
		t.Fatalf("加密失败: %v", err)
	}
	if _, err := DecryptAES("key-2", encrypted); err == nil {
		t.Error("错误密钥不应解密成功")
	}
	if _, err := DecryptAES("key-1", []byte("short")); err == nil {
		t.Error("过短密文应返回错误")
	}
}

func TestEncryptDecryptField(t *testing.T) {
	key := "field-key"

	enc, err := EncryptField(key, "POST /v0/limits/")
	if err != nil {
		t.Fatalf("加密失败: %v", err)
	}
	if enc == "POST /v0/limits/" {
		t.Error("密文不应等于明文")
	}
	if got := DecryptField(key, enc); got != "POST /v0/limits/" {
		t.Errorf("DecryptField = %q", got)
	}

	// 无密钥：原样返回
	if got, _ := EncryptField("", "plain"); got != "plain" {
		t.Errorf("EncryptField without key = %q", got)
	}
	// 非 base64：原样返回
	if got := DecryptField(key, "not base64!"); got != "not base64!" {
		t.Errorf("DecryptField invalid = %q", got)
	}
}
