package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestNew verifies a Notifier is only enabled when both the flag and a
// URL are present.
func TestNew(t *testing.T) {
	assert.False(t, New(false, "").Enabled)
	assert.False(t, New(true, "").Enabled, "no URL means disabled")
	assert.False(t, New(false, "telegram://t@telegram?chats=@me").Enabled)
	assert.True(t, New(true, "telegram://t@telegram?chats=@me").Enabled)
}

// TestDisabledNotifierIsNoOp verifies disabled and nil notifiers never
// attempt a send, so callers can invoke them unconditionally.
func TestDisabledNotifierIsNoOp(t *testing.T) {
	disabled := New(true, "")
	disabled.BuildFinished("myproject", "devenv/myproject:abc", 3*time.Minute)
	disabled.BuildFailed("myproject", errors.New("emerge failed"))

	var nilNotifier *Notifier
	nilNotifier.BuildFinished("myproject", "devenv/myproject:abc", time.Second)
	nilNotifier.BuildFailed("myproject", errors.New("emerge failed"))
}
