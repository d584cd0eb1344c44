// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev admin (admin@casevault.dev) already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"casevault/backend/internal/config"
	"casevault/backend/internal/db"
	"casevault/backend/internal/security"
)

const (
	devAdminEmail = "admin@casevault.dev"
	devStaffEmail = "staff@casevault.dev"
	devPassword   = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()

	var count int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM staff_accounts WHERE email = $1`, devAdminEmail).Scan(&count); err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if count > 0 {
		log.Println("seed: dev accounts already present, nothing to do")
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash: %v", err)
	}

	now := time.Now().UTC()
	adminID := uuid.New().String()
	staffID := uuid.New().String()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		log.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()

	const insertAccount = `INSERT INTO staff_accounts (id, email, name, password_hash, active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, $5)`
	if _, err := tx.ExecContext(ctx, insertAccount, adminID, devAdminEmail, "Dev Admin", hash, now); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if _, err := tx.ExecContext(ctx, insertAccount, staffID, devStaffEmail, "Dev Staff", hash, now); err != nil {
		log.Fatalf("seed staff: %v", err)
	}

	const insertRole = `INSERT INTO staff_roles (principal_id, role) VALUES ($1, $2)`
	if _, err := tx.ExecContext(ctx, insertRole, adminID, "admin"); err != nil {
		log.Fatalf("seed admin role: %v", err)
	}
	if _, err := tx.ExecContext(ctx, insertRole, staffID, "staff"); err != nil {
		log.Fatalf("seed staff role: %v", err)
	}

	const insertClient = `INSERT INTO clients
		(id, first_name, last_name, email, phone, address, case_notes, financial_notes, assigned_staff_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`
	sampleClients := []struct {
		first, last, email, phone, address, caseNotes, finNotes string
	}{
		{"Jane", "Doe", "jane.doe@example.org", "+15550001111", "1 Main St", "Initial intake complete.", "No outstanding balance."},
		{"John", "O'Brien", "john.obrien@example.org", "+15550002222", "2 Oak Ave", "Follow-up scheduled.", "Payment plan active."},
	}
	for _, c := range sampleClients {
		if _, err := tx.ExecContext(ctx, insertClient,
			uuid.New().String(), c.first, c.last, c.email, c.phone, c.address, c.caseNotes, c.finNotes, staffID, now); err != nil {
			log.Fatalf("seed client %s %s: %v", c.first, c.last, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("commit: %v", err)
	}
	log.Printf("seed: created %s (admin) and %s (staff), password %q", devAdminEmail, devStaffEmail, devPassword)
}
