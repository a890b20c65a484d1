package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/ports"
)

// ComplianceRuleRepositoryImpl implements the ComplianceRuleRepository interface
type ComplianceRuleRepositoryImpl struct {
	db *sqlx.DB
}

// NewComplianceRuleRepository creates a new compliance rule repository
func NewComplianceRuleRepository(db *sqlx.DB) ports.ComplianceRuleRepository {
	return &ComplianceRuleRepositoryImpl{db: db}
}

const ruleColumns = `id, name, description, rule_type, conditions, actions, is_active,
	created_by, created_at, updated_at`

func (r *ComplianceRuleRepositoryImpl) Create(ctx context.Context, rule *entities.ComplianceRule) error {
	query := `
		INSERT INTO compliance_rules (name, description, rule_type, conditions, actions, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	conditions, err := marshalJSONB(rule.Conditions)
	if err != nil {
		return err
	}
	actions, err := marshalJSONB(rule.Actions)
	if err != nil {
		return err
	}

	err = executorFrom(ctx, r.db).QueryRowContext(ctx, query,
		rule.Name, rule.Description, rule.RuleType, conditions, actions,
		rule.IsActive, rule.CreatedBy,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create compliance rule: %w", err)
	}

	return nil
}

func (r *ComplianceRuleRepositoryImpl) GetByID(ctx context.Context, id int) (*entities.ComplianceRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM compliance_rules WHERE id = $1`, ruleColumns)

	row := executorFrom(ctx, r.db).QueryRowContext(ctx, query, id)
	rule, err := scanRule(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrRuleNotFound
		}
		return nil, fmt.Errorf("get compliance rule: %w", err)
	}

	return rule, nil
}

func (r *ComplianceRuleRepositoryImpl) GetActiveByType(ctx context.Context, ruleType string) ([]*entities.ComplianceRule, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM compliance_rules
		WHERE rule_type = $1 AND is_active
		ORDER BY id ASC`, ruleColumns)

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, ruleType)
	if err != nil {
		return nil, fmt.Errorf("list compliance rules: %w", err)
	}
	defer rows.Close()

	var rules []*entities.ComplianceRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan compliance rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return rules, nil
}

func scanRule(row rowScanner) (*entities.ComplianceRule, error) {
	var rule entities.ComplianceRule
	var conditions, actions []byte

	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Description, &rule.RuleType,
		&conditions, &actions, &rule.IsActive, &rule.CreatedBy,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(conditions, &rule.Conditions); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(actions, &rule.Actions); err != nil {
		return nil, err
	}

	return &rule, nil
}
