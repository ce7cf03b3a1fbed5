package repositories

import (
	"database/sql"

	intconfig "vivahahub/internal/config"
	"vivahahub/internal/domain/models"
)

// EscrowTransactionRepository writes and reads the append-only ledger. There
// is no update or delete path on purpose.
type EscrowTransactionRepository struct {
	DB *sql.DB
}

func (r EscrowTransactionRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r EscrowTransactionRepository) Append(tx models.EscrowTransaction) (int64, error) {
	res, err := r.db().Exec(`
		INSERT INTO escrow_transactions
			(escrow_account_id, transaction_type, amount, from_user_id, to_user_id,
			 status, description, external_ref, created_by, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())`,
		tx.EscrowAccountID, tx.TransactionType, tx.Amount, tx.FromUserID, tx.ToUserID,
		tx.Status, tx.Description, tx.ExternalRef, tx.CreatedBy,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r EscrowTransactionRepository) ListByAccount(accountID int64) ([]models.EscrowTransaction, error) {
	rows, err := r.db().Query(`
		SELECT id, escrow_account_id, transaction_type, amount, from_user_id, to_user_id,
		       status, COALESCE(description,''), COALESCE(external_ref,''), created_by, processed_at
		FROM escrow_transactions
		WHERE escrow_account_id=?
		ORDER BY processed_at ASC, id ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.EscrowTransaction{}
	for rows.Next() {
		var t models.EscrowTransaction
		if err := rows.Scan(
			&t.ID,
			&t.EscrowAccountID,
			&t.TransactionType,
			&t.Amount,
			&t.FromUserID,
			&t.ToUserID,
			&t.Status,
			&t.Description,
			&t.ExternalRef,
			&t.CreatedBy,
			&t.ProcessedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SumByType totals ledger amounts of one type for an account. Used by the
// reconciliation audit against the account accumulators.
func (r EscrowTransactionRepository) SumByType(accountID int64, txType string) (int64, error) {
	var total int64
	err := r.db().QueryRow(`
		SELECT COALESCE(SUM(amount),0)
		FROM escrow_transactions
		WHERE escrow_account_id=? AND transaction_type=?`, accountID, txType).Scan(&total)
	return total, err
}
