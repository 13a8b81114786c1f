package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageFlow(t *testing.T) {
	ts := newTestServer(t)
	aliceSession, _ := ts.join(t, "alice@example.com", "Alice")
	bobSession, bob := ts.join(t, "bob@example.com", "Bob")

	// Alice sends Bob a message.
	rec := ts.do(t, http.MethodPost, "/message/send", map[string]any{
		"targetUserId": bob["id"],
		"subject":      "coffee?",
		"content":      "cafe babbage at 3?",
	}, aliceSession)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	msg := decodeBody(t, rec)
	msgID := msg["id"].(string)
	assert.Equal(t, "bob@example.com", msg["toUserEmail"], "recipient email is snapshotted")
	assert.Equal(t, false, msg["isRead"])

	// Bob's inbox has it; Alice's outbox has it.
	rec = ts.do(t, http.MethodGet, "/message/received", nil, bobSession)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/message/sent", nil, aliceSession)
	require.Equal(t, http.StatusOK, rec.Code)

	// Bob reads it.
	rec = ts.do(t, http.MethodPatch, fmt.Sprintf("/message/%s/read", msgID), nil, bobSession)
	require.Equal(t, http.StatusOK, rec.Code)
	read := decodeBody(t, rec)
	assert.Equal(t, true, read["isRead"])
	assert.NotEmpty(t, read["readAt"])
}

func TestMessage_AccessControl(t *testing.T) {
	ts := newTestServer(t)
	aliceSession, _ := ts.join(t, "alice@example.com", "Alice")
	_, bob := ts.join(t, "bob@example.com", "Bob")
	eveSession, _ := ts.join(t, "eve@example.com", "Eve")

	rec := ts.do(t, http.MethodPost, "/message/send", map[string]any{
		"targetUserId": bob["id"],
		"subject":      "secret",
		"content":      "for bob only",
	}, aliceSession)
	require.Equal(t, http.StatusCreated, rec.Code)
	msgID := decodeBody(t, rec)["id"].(string)

	// Eve is neither sender nor recipient.
	rec = ts.do(t, http.MethodGet, "/message/"+msgID, nil, eveSession)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The sender can read but not mark read.
	rec = ts.do(t, http.MethodGet, "/message/"+msgID, nil, aliceSession)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPatch, fmt.Sprintf("/message/%s/read", msgID), nil, aliceSession)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMessage_Validation(t *testing.T) {
	ts := newTestServer(t)
	session, me := ts.join(t, "alice@example.com", "Alice")

	// Messaging yourself.
	rec := ts.do(t, http.MethodPost, "/message/send", map[string]any{
		"targetUserId": me["id"],
		"subject":      "hi",
		"content":      "me",
	}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing subject.
	_, bob := ts.join(t, "bob@example.com", "Bob")
	rec = ts.do(t, http.MethodPost, "/message/send", map[string]any{
		"targetUserId": bob["id"],
		"content":      "no subject",
	}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown recipient.
	rec = ts.do(t, http.MethodPost, "/message/send", map[string]any{
		"targetUserId": "no-such-user",
		"subject":      "hi",
		"content":      "hello?",
	}, session)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
