package utils

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	tok, err := issuer.GenerateJWT("abc", "Seller")
	require.NoError(t, err)

	claims, err := issuer.ParseJWT(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.ID)
	assert.Equal(t, "Seller", claims.Role)

	_, err = NewTokenIssuer("other", time.Hour).ParseJWT(tok)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", -time.Minute)
	tok, err := issuer.GenerateJWT("abc", "user")
	require.NoError(t, err)
	_, err = issuer.ParseJWT(tok)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "s3cret"))
}

func TestIsExpoPushToken(t *testing.T) {
	assert.True(t, IsExpoPushToken("ExponentPushToken[xxxx]"))
	assert.True(t, IsExpoPushToken("ExpoPushToken[yyyy]"))
	assert.False(t, IsExpoPushToken("fcm:abcdef"))
	assert.False(t, IsExpoPushToken("ExpoPushToken[open"))
}

func TestExpoClientChunksAndFilters(t *testing.T) {
	var requests, received int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		var msgs []PushMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msgs))
		atomic.AddInt32(&received, int32(len(msgs)))

		tickets := make([]PushTicket, len(msgs))
		for i := range tickets {
			tickets[i] = PushTicket{Status: "ok", ID: fmt.Sprint(i)}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"data": tickets})
	}))
	defer srv.Close()

	var msgs []PushMessage
	for i := 0; i < 150; i++ {
		msgs = append(msgs, PushMessage{To: fmt.Sprintf("ExponentPushToken[%d]", i), Title: "t", Body: "b"})
	}
	msgs = append(msgs, PushMessage{To: "not-a-token"})

	tickets, err := NewExpoClient(srv.URL, "").Send(context.Background(), msgs)
	require.NoError(t, err)
	assert.Len(t, tickets, 150)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
	assert.Equal(t, int32(150), atomic.LoadInt32(&received))
}

func TestExpoClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewExpoClient(srv.URL, "").Send(context.Background(), []PushMessage{{To: "ExpoPushToken[a]"}})
	assert.Error(t, err)
}

func TestVerifyRazorpaySignature(t *testing.T) {
	h := hmac.New(sha256.New, []byte("key_secret"))
	h.Write([]byte("order_123|pay_456"))
	sig := hex.EncodeToString(h.Sum(nil))

	assert.True(t, VerifyRazorpaySignature("key_secret", "order_123", "pay_456", sig))
	assert.False(t, VerifyRazorpaySignature("key_secret", "order_123", "pay_457", sig))
	assert.False(t, VerifyRazorpaySignature("other", "order_123", "pay_456", sig))
}

func TestNewMailer(t *testing.T) {
	m, err := NewMailer("none", "", "", "a@b.c")
	require.NoError(t, err)
	assert.IsType(t, LogMailer{}, m)

	_, err = NewMailer("postmark", "", "", "a@b.c")
	assert.Error(t, err)

	m, err = NewMailer("sendgrid", "", "SG.key", "a@b.c")
	require.NoError(t, err)
	assert.IsType(t, &SendgridMailer{}, m)

	_, err = NewMailer("smtp", "", "", "")
	assert.Error(t, err)
}
