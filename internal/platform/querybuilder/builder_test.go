package querybuilder

import "testing"

func TestSelectBuilder_ToSQL(t *testing.T) {
	t.Parallel()

	query, args, err := Select("id", "session_name").
		From("sessions").
		Where(Eq("session_type", "Race"), Expr("session_date > ?", "2024-01-01")).
		OrderBy("session_date DESC").
		Limit(5).
		ToSQL()
	if err != nil {
		t.Fatalf("build select: %v", err)
	}

	want := "SELECT id, session_name FROM sessions WHERE session_type = $1 AND session_date > $2 ORDER BY session_date DESC LIMIT 5"
	if query != want {
		t.Fatalf("unexpected query:\n got=%s\nwant=%s", query, want)
	}
	if len(args) != 2 || args[0] != "Race" || args[1] != "2024-01-01" {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestSelectBuilder_EmptyInIsNeverTrue(t *testing.T) {
	t.Parallel()

	query, args, err := Select("id").From("sessions").Where(In("id", nil)).ToSQL()
	if err != nil {
		t.Fatalf("build select: %v", err)
	}
	if query != "SELECT id FROM sessions WHERE 1=0" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 0 {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestInsertModel_UsesDBTagsAndSuffix(t *testing.T) {
	t.Parallel()

	type row struct {
		ID   int64  `db:"id"`
		Name string `db:"session_name"`
		Hide string `db:"-"`
	}

	query, args, err := InsertModel("sessions", row{ID: 9222, Name: "Spa Race"}, "ON CONFLICT (id) DO NOTHING")
	if err != nil {
		t.Fatalf("build insert: %v", err)
	}

	want := "INSERT INTO sessions (id, session_name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING"
	if query != want {
		t.Fatalf("unexpected query:\n got=%s\nwant=%s", query, want)
	}
	if len(args) != 2 || args[0] != int64(9222) || args[1] != "Spa Race" {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestInsertModels_MultiRow(t *testing.T) {
	t.Parallel()

	type row struct {
		SessionID    int64 `db:"session_id"`
		DriverNumber int   `db:"driver_number"`
	}

	query, args, err := InsertModels("session_drivers", []row{
		{SessionID: 9222, DriverNumber: 44},
		{SessionID: 9222, DriverNumber: 1},
	}, "ON CONFLICT (session_id, driver_number) DO NOTHING")
	if err != nil {
		t.Fatalf("build insert: %v", err)
	}

	want := "INSERT INTO session_drivers (session_id, driver_number) VALUES ($1, $2), ($3, $4) ON CONFLICT (session_id, driver_number) DO NOTHING"
	if query != want {
		t.Fatalf("unexpected query:\n got=%s\nwant=%s", query, want)
	}
	if len(args) != 4 {
		t.Fatalf("unexpected args: %v", args)
	}
}
