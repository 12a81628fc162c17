package presence

import "testing"

func TestConnectingText(t *testing.T) {
	s := Connecting()
	if s.Text() != "Connecting to Azeroth..." {
		t.Errorf("Text() = %q", s.Text())
	}
	if s.IsOnline() {
		t.Errorf("Connecting should not report online")
	}
}

func TestDisconnectedText(t *testing.T) {
	s := Disconnected()
	if s.Text() != "Disconnected" {
		t.Errorf("Text() = %q", s.Text())
	}
	if s.IsOnline() {
		t.Errorf("Disconnected should not report online")
	}
}

func TestConnectedToRealmText(t *testing.T) {
	s := ConnectedToRealm("Ascension")
	if s.Text() != "on Ascension" {
		t.Errorf("Text() = %q", s.Text())
	}
	if !s.IsOnline() {
		t.Errorf("ConnectedToRealm should report online")
	}
}

func TestGuildStatsText(t *testing.T) {
	s := GuildStats(42)
	if s.Text() != "42 online" {
		t.Errorf("Text() = %q", s.Text())
	}
	if !s.IsOnline() {
		t.Errorf("GuildStats should report online")
	}
}
