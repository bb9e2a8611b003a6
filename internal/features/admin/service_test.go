package admin

import (
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"

	"github.com/terajutt/INSTA-UNC/internal/config"
)

func newTestService() *Service {
	return NewService(nil, nil, nil, nil, nil, &config.Config{AdminIDs: []int64{1}})
}

func TestDialogStateMachine(t *testing.T) {
	s := newTestService()
	const adminID = int64(1)

	assert.Equal(t, StateIdle, s.State(adminID))

	s.SetState(adminID, StateAwaitingBulkAdd)
	assert.Equal(t, StateAwaitingBulkAdd, s.State(adminID))

	// Other admins are unaffected.
	assert.Equal(t, StateIdle, s.State(2))

	s.SetState(adminID, StateAwaitingBroadcast)
	assert.Equal(t, StateAwaitingBroadcast, s.State(adminID))

	s.ClearState(adminID)
	assert.Equal(t, StateIdle, s.State(adminID))
}

func TestDialogStateExpiry(t *testing.T) {
	s := newTestService()
	const adminID = int64(1)

	s.SetState(adminID, StateAwaitingBulkAdd)

	// Backdate the dialog past its TTL.
	s.dialogsMu.Lock()
	d := s.dialogs[adminID]
	d.ExpiresAt = time.Now().Add(-time.Second)
	s.dialogs[adminID] = d
	s.dialogsMu.Unlock()

	assert.Equal(t, StateIdle, s.State(adminID))
}

func TestFanOut(t *testing.T) {
	var delivered []int64
	send := func(userID int64, text string) error {
		if userID == 13 {
			return errors.New("blocked by user")
		}
		delivered = append(delivered, userID)
		return nil
	}

	res := fanOut("test-run", []int64{10, 13, 20, 30}, "hello", send)

	assert.Equal(t, 3, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []int64{10, 20, 30}, delivered)
}

func TestFanOutEmpty(t *testing.T) {
	res := fanOut("test-run", nil, "hello", func(int64, string) error {
		t.Fatal("send must not be called")
		return nil
	})
	assert.Equal(t, 0, res.Sent)
	assert.Equal(t, 0, res.Failed)
}

func encodeArgon2id(password string, salt []byte) string {
	const (
		memory      = 65536
		iterations  = 3
		parallelism = 2
	)
	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, 32)
	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
}

func TestVerifyArgon2id(t *testing.T) {
	salt := []byte("0123456789abcdef")
	encoded := encodeArgon2id("correct horse", salt)

	assert.True(t, verifyArgon2id("correct horse", encoded))
	assert.False(t, verifyArgon2id("wrong password", encoded))
	assert.False(t, verifyArgon2id("correct horse", "not-a-hash"))
	assert.False(t, verifyArgon2id("correct horse", "$argon2id$v=19$garbage$AAAA$AAAA"))
}

func TestGenerateSecureToken(t *testing.T) {
	a := generateSecureToken()
	b := generateSecureToken()

	require.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
