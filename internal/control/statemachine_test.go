package control

import "testing"

func TestHotkeyTogglesLocalToRemote(t *testing.T) {
	s := New(ModCtrl | ModAlt)

	s.SetModifierHeld(ModCtrl, true)
	held := s.SetModifierHeld(ModAlt, true)
	if held != ModCtrl|ModAlt {
		t.Fatalf("held = %v, want ModCtrl|ModAlt", held)
	}

	if !s.HandleHotkey() {
		t.Fatal("expected hotkey match to report true")
	}
	if s.Mode() != Remote {
		t.Fatalf("mode = %v, want Remote", s.Mode())
	}
}

func TestHotkeyFromRemoteEntersPendingReleaseThenLocal(t *testing.T) {
	s := New(ModCtrl | ModAlt)
	s.SetModifierHeld(ModCtrl, true)
	s.SetModifierHeld(ModAlt, true)
	s.HandleHotkey()

	if !s.HandleHotkey() {
		t.Fatal("expected second hotkey match to report true")
	}
	if s.Mode() != PendingRelease {
		t.Fatalf("mode = %v, want PendingRelease", s.Mode())
	}

	if !s.SuppressLocalKeyUp() {
		t.Fatal("expected KeyUp suppression while PendingRelease")
	}

	s.SetModifierHeld(ModCtrl, false)
	s.NoteModifiersReleased()
	if s.Mode() != PendingRelease {
		t.Fatalf("mode = %v, want still PendingRelease with Alt held", s.Mode())
	}

	s.SetModifierHeld(ModAlt, false)
	s.NoteModifiersReleased()
	if s.Mode() != Local {
		t.Fatalf("mode = %v, want Local once all modifiers released", s.Mode())
	}
	if s.SuppressLocalKeyUp() {
		t.Fatal("expected KeyUp suppression to end once Local")
	}
}

func TestNonMatchingModifiersDoNotToggle(t *testing.T) {
	s := New(ModCtrl | ModAlt)
	s.SetModifierHeld(ModCtrl, true)

	if s.HandleHotkey() {
		t.Fatal("partial modifier match should not toggle")
	}
	if s.Mode() != Local {
		t.Fatalf("mode = %v, want Local", s.Mode())
	}
}

func TestEdgeTriggeredTransitionsBypassHotkey(t *testing.T) {
	s := New(ModCtrl | ModAlt)

	s.RequestEnterRemote()
	if s.Mode() != Remote {
		t.Fatalf("mode = %v, want Remote", s.Mode())
	}

	s.RequestRelease()
	if s.Mode() != PendingRelease {
		t.Fatalf("mode = %v, want PendingRelease", s.Mode())
	}

	s.NoteModifiersReleased()
	if s.Mode() != Local {
		t.Fatalf("mode = %v, want Local", s.Mode())
	}
}

func TestResetForcesLocal(t *testing.T) {
	s := New(ModCtrl | ModAlt)
	s.RequestEnterRemote()
	s.SetModifierHeld(ModShift, true)

	s.Reset()

	if s.Mode() != Local {
		t.Fatalf("mode = %v, want Local", s.Mode())
	}
	if s.SetModifierHeld(0, true) != 0 {
		t.Fatal("expected held modifiers to be cleared by Reset")
	}
}

func TestListenerReceivesTransitions(t *testing.T) {
	s := New(ModCtrl | ModAlt)

	var got [][2]Mode
	s.OnChange(func(prev, next Mode) {
		got = append(got, [2]Mode{prev, next})
	})

	s.RequestEnterRemote()
	s.RequestRelease()
	s.NoteModifiersReleased()

	want := [][2]Mode{{Local, Remote}, {Remote, PendingRelease}, {PendingRelease, Local}}
	if len(got) != len(want) {
		t.Fatalf("got %d transitions, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRemoveListenerStopsNotifications(t *testing.T) {
	s := New(ModCtrl | ModAlt)

	calls := 0
	h := s.OnChange(func(prev, next Mode) { calls++ })
	s.RequestEnterRemote()
	s.RemoveListener(h)
	s.RequestRelease()

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
