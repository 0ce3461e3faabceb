package main

import (
	"strings"
	"testing"
)

func TestPlaceholderAvatarURLDeterministic(t *testing.T) {
	a := placeholderAvatarURL("김재즈")
	b := placeholderAvatarURL("김재즈")
	if a != b {
		t.Fatalf("same name produced different URLs: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "https://ui-avatars.com/api/?name=") {
		t.Fatalf("unexpected avatar URL: %q", a)
	}
	if strings.ContainsAny(a, " 김") {
		t.Fatalf("name not escaped in URL: %q", a)
	}
}

func TestInviteCodeRoundTrip(t *testing.T) {
	app := &application{config: config{invite: inviteConfig{salt: "test-salt"}}}

	codec, err := app.inviteCodec()
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	code, err := codec.EncodeInt64([]int64{42})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(code) < 8 {
		t.Fatalf("code %q shorter than minimum length", code)
	}

	ids, err := codec.DecodeInt64WithError(code)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ids) != 1 || ids[0] != 42 {
		t.Fatalf("round trip gave %v, want [42]", ids)
	}
}

func TestInviteCodeRejectsForeignSalt(t *testing.T) {
	app := &application{config: config{invite: inviteConfig{salt: "salt-a"}}}
	other := &application{config: config{invite: inviteConfig{salt: "salt-b"}}}

	codecA, err := app.inviteCodec()
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	codecB, err := other.inviteCodec()
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	code, err := codecA.EncodeInt64([]int64{7})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if ids, err := codecB.DecodeInt64WithError(code); err == nil && len(ids) == 1 && ids[0] == 7 {
		t.Fatal("code minted under one salt decoded under another")
	}
}
