package store

import (
	"testing"
	"time"

	tu "github.com/cratedig/cratedig/internal/testing"
)

func TestCredentialStore(t *testing.T) {
	t.Run("Persist Then Current", func(t *testing.T) {
		db := tu.NewTestDB(t)
		s := New(db, "picker", nil)

		if err := s.Persist("awesomeToken", 3600); err != nil {
			t.Fatalf("persist failed: %v", err)
		}

		token, ok := s.Current()
		if !ok {
			t.Fatal("expected a current credential")
		}
		if token != "awesomeToken" {
			t.Errorf("expected 'awesomeToken', got %q", token)
		}
	})

	t.Run("Empty Store", func(t *testing.T) {
		db := tu.NewTestDB(t)
		s := New(db, "picker", nil)

		if token, ok := s.Current(); ok {
			t.Errorf("expected no credential, got %q", token)
		}
	})

	t.Run("Expiry", func(t *testing.T) {
		db := tu.NewTestDB(t)
		s := New(db, "picker", nil)

		now := time.Now()
		s.SetClock(func() time.Time { return now })

		if err := s.Persist("shortLived", 60); err != nil {
			t.Fatalf("persist failed: %v", err)
		}

		if _, ok := s.Current(); !ok {
			t.Error("expected credential to be current before expiry")
		}

		s.SetClock(func() time.Time { return now.Add(59 * time.Second) })
		if _, ok := s.Current(); !ok {
			t.Error("expected credential to be current just before expiry")
		}

		s.SetClock(func() time.Time { return now.Add(60 * time.Second) })
		if token, ok := s.Current(); ok {
			t.Errorf("expected credential to be expired, got %q", token)
		}
	})

	t.Run("Non-Positive TTL Is A No-Op", func(t *testing.T) {
		t.Run("without prior credential", func(t *testing.T) {
			db := tu.NewTestDB(t)
			s := New(db, "picker", nil)

			for _, ttl := range []int{0, -1} {
				if err := s.Persist("ignored", ttl); err != nil {
					t.Fatalf("persist with ttl %d failed: %v", ttl, err)
				}
				if token, ok := s.Current(); ok {
					t.Errorf("ttl %d: expected no credential, got %q", ttl, token)
				}
			}
		})

		t.Run("with prior credential", func(t *testing.T) {
			db := tu.NewTestDB(t)
			s := New(db, "picker", nil)

			if err := s.Persist("original", 3600); err != nil {
				t.Fatalf("persist failed: %v", err)
			}
			if err := s.Persist("replacement", 0); err != nil {
				t.Fatalf("no-op persist failed: %v", err)
			}

			token, ok := s.Current()
			if !ok {
				t.Fatal("expected the prior credential to survive")
			}
			if token != "original" {
				t.Errorf("expected 'original', got %q", token)
			}
		})
	})

	t.Run("Overwrite", func(t *testing.T) {
		db := tu.NewTestDB(t)
		s := New(db, "picker", nil)

		if err := s.Persist("first", 3600); err != nil {
			t.Fatalf("persist failed: %v", err)
		}
		if err := s.Persist("second", 3600); err != nil {
			t.Fatalf("persist failed: %v", err)
		}

		if token, _ := s.Current(); token != "second" {
			t.Errorf("expected 'second', got %q", token)
		}
	})

	t.Run("Garbled Slots Read As Absent", func(t *testing.T) {
		t.Run("garbled value", func(t *testing.T) {
			db := tu.NewTestDB(t)
			s := New(db, "picker", nil)

			if err := s.Persist("token", 3600); err != nil {
				t.Fatalf("persist failed: %v", err)
			}
			if _, err := db.Exec("UPDATE credentials SET value = 'not base64!!!' WHERE key = 'picker'"); err != nil {
				t.Fatalf("failed to garble value slot: %v", err)
			}

			if token, ok := s.Current(); ok {
				t.Errorf("expected garbled credential to read as absent, got %q", token)
			}
		})

		t.Run("garbled expiry", func(t *testing.T) {
			db := tu.NewTestDB(t)
			s := New(db, "picker", nil)

			if err := s.Persist("token", 3600); err != nil {
				t.Fatalf("persist failed: %v", err)
			}
			if _, err := db.Exec("UPDATE credentials SET value = 'soon' WHERE key = 'picker-expiration-time'"); err != nil {
				t.Fatalf("failed to garble expiry slot: %v", err)
			}

			if _, ok := s.Current(); ok {
				t.Error("expected garbled expiry to read as absent")
			}
		})

		t.Run("missing value slot", func(t *testing.T) {
			db := tu.NewTestDB(t)
			s := New(db, "picker", nil)

			if err := s.Persist("token", 3600); err != nil {
				t.Fatalf("persist failed: %v", err)
			}
			if _, err := db.Exec("DELETE FROM credentials WHERE key = 'picker'"); err != nil {
				t.Fatalf("failed to delete value slot: %v", err)
			}

			if _, ok := s.Current(); ok {
				t.Error("expected missing value slot to read as absent")
			}
		})
	})

	t.Run("Namespace Isolation", func(t *testing.T) {
		db := tu.NewTestDB(t)
		a := New(db, "alpha", nil)
		b := New(db, "beta", nil)

		if err := a.Persist("tokenA", 3600); err != nil {
			t.Fatalf("persist failed: %v", err)
		}

		if _, ok := b.Current(); ok {
			t.Error("expected beta namespace to be empty")
		}
		if token, _ := a.Current(); token != "tokenA" {
			t.Errorf("expected 'tokenA', got %q", token)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		db := tu.NewTestDB(t)
		s := New(db, "picker", nil)

		if err := s.Persist("token", 3600); err != nil {
			t.Fatalf("persist failed: %v", err)
		}
		if err := s.Clear(); err != nil {
			t.Fatalf("clear failed: %v", err)
		}

		if _, ok := s.Current(); ok {
			t.Error("expected no credential after clear")
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM credentials").Scan(&count); err != nil {
			t.Fatalf("failed to count rows: %v", err)
		}
		if count != 0 {
			t.Errorf("expected both slots removed, found %d rows", count)
		}
	})
}
