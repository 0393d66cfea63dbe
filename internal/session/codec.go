// Package session は署名付きCookieによるクライアント保持型セッションを提供する。
//
// セッションはサーバー側に保存されず、ユーザーIDと発行・失効時刻をHMACで
// 署名した値としてCookieに載せる。サーバーは毎リクエスト、信頼できない入力
// として再検証する。
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CookieName はセッションCookieの名前。
const CookieName = "session"

// Codec はセッションCookie値の発行と検証を行う。
// 署名鍵は起動時に設定から注入され、環境を直接参照しない。
type Codec struct {
	secret []byte
	maxAge time.Duration
	secure bool
	domain string

	// now はテストで時刻を差し替えるためのフック。
	now func() time.Time
}

// NewCodec はCodecを生成する。
// maxAgeはセッションの有効期間（例: 30日）。
func NewCodec(secret string, maxAge time.Duration, secure bool, domain string) *Codec {
	return &Codec{
		secret: []byte(secret),
		maxAge: maxAge,
		secure: secure,
		domain: domain,
		now:    time.Now,
	}
}

// Issue は指定ユーザーのセッションCookieを発行する。
// 値は base64url(payload) + "." + base64url(HMAC-SHA256(payload)) で、
// payloadは "userID|issuedAt|expiresAt"（Unix秒）。
func (c *Codec) Issue(userID string) *http.Cookie {
	issuedAt := c.now()
	expiresAt := issuedAt.Add(c.maxAge)

	payload := fmt.Sprintf("%s|%d|%d", userID, issuedAt.Unix(), expiresAt.Unix())
	value := encode(payload) + "." + encode(c.sign(payload))

	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Domain:   c.domain,
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Read はリクエストのセッションCookieからユーザーIDを取り出す。
// Cookieの欠落・破損・署名不一致・期限切れはすべてok=falseとして扱い、
// 改ざんされたCookieと「セッションなし」を呼び出し側から区別できなくする。
func (c *Codec) Read(r *http.Request) (userID string, ok bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return c.Decode(cookie.Value)
}

// Decode はCookie値を検証してユーザーIDを返す。
func (c *Codec) Decode(value string) (userID string, ok bool) {
	dot := strings.LastIndexByte(value, '.')
	if dot < 0 {
		return "", false
	}

	payload, err := decode(value[:dot])
	if err != nil {
		return "", false
	}
	mac, err := decode(value[dot+1:])
	if err != nil {
		return "", false
	}

	if !hmac.Equal([]byte(mac), []byte(c.sign(payload))) {
		return "", false
	}

	parts := strings.Split(payload, "|")
	if len(parts) != 3 || parts[0] == "" {
		return "", false
	}

	expiresAt, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", false
	}
	if !c.now().Before(time.Unix(expiresAt, 0)) {
		return "", false
	}

	return parts[0], true
}

// Clear はセッションを即座に破棄するCookieを返す。
func (c *Codec) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   c.domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// sign はpayloadのHMAC-SHA256署名を返す。
func (c *Codec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return string(mac.Sum(nil))
}

func encode(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func decode(s string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
