package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/domain/schedule"
	"github.com/lexassist/core/internal/infrastructure/logger"
	"github.com/lexassist/core/internal/ports"
)

// ComplianceService evaluates statutory and custom compliance rules against a
// user's data and generates the statutory filing deadlines the checks surface.
type ComplianceService struct {
	ruleRepo     ports.ComplianceRuleRepository
	deadlineRepo ports.DeadlineRepository
	deadlines    ports.DeadlineService
	filingDays   map[entities.FilingCadence]int
	logger       *logger.Logger
}

// NewComplianceService creates a new compliance service. filingDays maps each
// filing cadence to its statutory day of month; missing cadences get the
// defaults (monthly 20, quarterly 20, annual 31).
func NewComplianceService(ruleRepo ports.ComplianceRuleRepository, deadlineRepo ports.DeadlineRepository, deadlines ports.DeadlineService, filingDays map[entities.FilingCadence]int, logger *logger.Logger) *ComplianceService {
	days := map[entities.FilingCadence]int{
		entities.CadenceMonthly:   20,
		entities.CadenceQuarterly: 20,
		entities.CadenceAnnual:    31,
	}
	for cadence, day := range filingDays {
		if cadence.IsValid() {
			days[cadence] = day
		}
	}
	return &ComplianceService{
		ruleRepo:     ruleRepo,
		deadlineRepo: deadlineRepo,
		deadlines:    deadlines,
		filingDays:   days,
		logger:       logger,
	}
}

// CheckCompliance runs the GST checks, the document-type legal checks, and the
// custom rule set against userData, and reports the combined verdict. A check
// that cannot run degrades to a warning instead of failing the whole call.
func (s *ComplianceService) CheckCompliance(ctx context.Context, documentType entities.DocumentType, userData map[string]any, userID uuid.UUID) (*ports.ComplianceResult, error) {
	result := &ports.ComplianceResult{
		IsCompliant:     true,
		Requirements:    []ports.ComplianceRequirement{},
		Deadlines:       []ports.ComplianceDeadline{},
		Warnings:        []string{},
		Recommendations: []string{},
	}

	if documentType == entities.DocumentTypeGST || documentType == entities.DocumentTypeBanking || documentType == entities.DocumentTypeCompliance {
		s.checkGST(ctx, userData, userID, result)
	}

	s.checkLegal(documentType, userData, result)

	if err := s.checkCustomRules(ctx, documentType, userData, result); err != nil {
		s.logger.Warn("Custom rule evaluation failed", "error", err, "document_type", documentType)
		result.Warnings = append(result.Warnings, "Custom rules could not be evaluated")
	}

	for _, req := range result.Requirements {
		if req.Critical {
			result.IsCompliant = false
			break
		}
	}
	if len(result.Warnings) > 0 {
		result.IsCompliant = false
	}

	return result, nil
}

// checkGST covers registration, the next filing deadline for the user's
// cadence, and record-keeping requirements. The surfaced filing deadline is
// also persisted as a recurring deadline, idempotently per filing period.
func (s *ComplianceService) checkGST(ctx context.Context, userData map[string]any, userID uuid.UUID, result *ports.ComplianceResult) {
	if stringValue(userData["gst_number"]) == "" {
		result.Requirements = append(result.Requirements, ports.ComplianceRequirement{
			Type:        "gst_registration",
			Description: "GST registration is required for businesses with turnover above threshold",
			Critical:    true,
			Action:      "Register for GST",
		})
	}

	cadence := entities.FilingCadence(stringValue(userData["business_type"]))
	if cadence == "" {
		cadence = entities.CadenceMonthly
	}
	if !cadence.IsValid() {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Unknown GST filing cadence %q", cadence))
		return
	}

	now := time.Now().UTC()
	dueDate, err := schedule.NextFilingDeadline(cadence, s.filingDays[cadence], now)
	if err != nil {
		s.logger.Warn("Filing deadline fell back to reference offset", "error", err, "cadence", cadence)
	}

	result.Deadlines = append(result.Deadlines, ports.ComplianceDeadline{
		Type:          "gst_filing",
		Description:   fmt.Sprintf("GST %s return filing", cadence),
		DueDate:       dueDate.Format(time.RFC3339),
		DaysRemaining: int(dueDate.Sub(now).Hours() / 24),
		Critical:      true,
	})

	if err := s.ensureFilingDeadline(ctx, userID, cadence, dueDate); err != nil {
		s.logger.Warn("Failed to persist GST filing deadline", "error", err, "user_id", userID)
		result.Warnings = append(result.Warnings, "GST filing deadline could not be recorded")
	}

	if truthy(userData["business_activities"]) {
		result.Requirements = append(result.Requirements, ports.ComplianceRequirement{
			Type:        "hsn_sac_codes",
			Description: "Ensure proper HSN/SAC codes are used for goods/services",
			Action:      "Verify HSN/SAC codes",
		})
	}
	if truthy(userData["has_purchases"]) {
		result.Requirements = append(result.Requirements, ports.ComplianceRequirement{
			Type:        "input_tax_credit",
			Description: "Maintain proper records for input tax credit claims",
			Action:      "Maintain purchase records",
		})
	}
}

// ensureFilingDeadline persists the statutory deadline once per (user, type,
// due date) filing period. Re-running a compliance check never duplicates it.
func (s *ComplianceService) ensureFilingDeadline(ctx context.Context, userID uuid.UUID, cadence entities.FilingCadence, dueDate time.Time) error {
	exists, err := s.deadlineRepo.ExistsForPeriod(ctx, userID, entities.DeadlineTypeGSTFiling, dueDate)
	if err != nil {
		return fmt.Errorf("failed to check existing filing deadline: %w", err)
	}
	if exists {
		return nil
	}

	pattern := cadence.RecurrencePattern()
	description := fmt.Sprintf("File GST %s return by %s", cadence, dueDate.Format("2006-01-02"))
	title := fmt.Sprintf("GST %s Return Filing", titleCase(string(cadence)))

	_, err = s.deadlines.CreateDeadline(ctx, userID, ports.CreateDeadlineRequest{
		Title:             title,
		Description:       &description,
		DeadlineType:      entities.DeadlineTypeGSTFiling,
		DueDate:           dueDate.Format(time.RFC3339),
		IsRecurring:       true,
		RecurrencePattern: &pattern,
		Metadata: map[string]any{
			"business_type":  string(cadence),
			"auto_generated": true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create filing deadline: %w", err)
	}
	return nil
}

// checkLegal appends the document-type specific requirements and warnings.
func (s *ComplianceService) checkLegal(documentType entities.DocumentType, userData map[string]any, result *ports.ComplianceResult) {
	switch documentType {
	case entities.DocumentTypeContract:
		result.Requirements = append(result.Requirements, ports.ComplianceRequirement{
			Type:        "contract_terms",
			Description: "Ensure all essential terms are clearly defined",
			Critical:    true,
			Action:      "Review contract terms",
		})
		if !truthy(userData["parties_defined"]) {
			result.Warnings = append(result.Warnings, "Parties to the contract should be clearly identified")
		}
		if !truthy(userData["consideration_defined"]) {
			result.Warnings = append(result.Warnings, "Consideration/compensation should be clearly specified")
		}

	case entities.DocumentTypeProperty:
		result.Requirements = append(result.Requirements, ports.ComplianceRequirement{
			Type:        "property_verification",
			Description: "Verify property title and ownership",
			Critical:    true,
			Action:      "Conduct title verification",
		})
		if !truthy(userData["encumbrance_check"]) {
			result.Warnings = append(result.Warnings, "Check for any encumbrances on the property")
		}

	case entities.DocumentTypeTrademark:
		result.Requirements = append(result.Requirements, ports.ComplianceRequirement{
			Type:        "trademark_search",
			Description: "Conduct trademark search before filing",
			Critical:    true,
			Action:      "Perform trademark search",
		})

	case entities.DocumentTypeDivorce:
		result.Requirements = append(result.Requirements, ports.ComplianceRequirement{
			Type:        "marriage_certificate",
			Description: "Marriage certificate is required for divorce proceedings",
			Critical:    true,
			Action:      "Obtain marriage certificate",
		})
	}

	result.Recommendations = append(result.Recommendations,
		"Consult with a qualified legal professional for complex matters",
		"Keep copies of all legal documents",
		"Maintain proper documentation for all transactions",
	)
}

// checkCustomRules evaluates every active rule registered for the document
// type. A rule matches when all of its conditions hold.
func (s *ComplianceService) checkCustomRules(ctx context.Context, documentType entities.DocumentType, userData map[string]any, result *ports.ComplianceResult) error {
	rules, err := s.ruleRepo.GetActiveByType(ctx, string(documentType))
	if err != nil {
		return fmt.Errorf("failed to load compliance rules: %w", err)
	}

	for _, rule := range rules {
		if !evaluateConditions(rule.Conditions, userData) {
			continue
		}
		for _, action := range rule.Actions {
			switch action.Type {
			case "requirement":
				req := ports.ComplianceRequirement{
					Type:        action.ID,
					Description: action.Description,
					Critical:    action.Critical,
					Action:      action.Action,
				}
				if req.Type == "" {
					req.Type = "custom_requirement"
				}
				if req.Description == "" {
					req.Description = "Custom compliance requirement"
				}
				if req.Action == "" {
					req.Action = "Take required action"
				}
				result.Requirements = append(result.Requirements, req)
			case "warning":
				message := action.Message
				if message == "" {
					message = "Custom compliance warning"
				}
				result.Warnings = append(result.Warnings, message)
			}
		}
	}
	return nil
}

// evaluateConditions reports whether every condition holds against userData.
// Numeric comparisons on non-numeric values fail the condition rather than
// erroring, so a malformed rule can never pass a check it should guard.
func evaluateConditions(conditions []entities.RuleCondition, userData map[string]any) bool {
	for _, cond := range conditions {
		value, present := userData[cond.Field]

		switch cond.Operator {
		case "equals":
			if !looseEqual(value, cond.Value) {
				return false
			}
		case "not_equals":
			if looseEqual(value, cond.Value) {
				return false
			}
		case "contains":
			if !strings.Contains(fmt.Sprint(value), fmt.Sprint(cond.Value)) {
				return false
			}
		case "greater_than":
			left, okL := toFloat(value)
			right, okR := toFloat(cond.Value)
			if !present || !okL || !okR || left <= right {
				return false
			}
		case "less_than":
			left, okL := toFloat(value)
			right, okR := toFloat(cond.Value)
			if !present || !okL || !okR || left >= right {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// GetComplianceSummary aggregates a user's deadlines by lifecycle state and
// by deadline type.
func (s *ComplianceService) GetComplianceSummary(ctx context.Context, userID uuid.UUID) (*ports.ComplianceSummary, error) {
	deadlines, _, err := s.deadlineRepo.List(ctx, ports.DeadlineFilter{UserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("failed to load deadlines: %w", err)
	}

	summary := &ports.ComplianceSummary{}
	now := time.Now().UTC()
	for _, d := range deadlines {
		summary.TotalDeadlines++
		switch {
		case d.IsCompleted:
			summary.CompletedDeadlines++
		case d.DueDate.After(now):
			summary.UpcomingDeadlines++
		default:
			summary.OverdueDeadlines++
		}
		switch d.DeadlineType {
		case entities.DeadlineTypeGSTFiling:
			summary.GSTDeadlines++
		case entities.DeadlineTypeCompliance:
			summary.ComplianceDeadlines++
		case entities.DeadlineTypeCustom:
			summary.CustomDeadlines++
		}
	}
	if summary.TotalDeadlines > 0 {
		summary.CompletionRate = float64(summary.CompletedDeadlines) / float64(summary.TotalDeadlines) * 100
	}
	return summary, nil
}

// CreateRule registers a new custom compliance rule.
func (s *ComplianceService) CreateRule(ctx context.Context, req ports.CreateRuleRequest, createdBy uuid.UUID) (*entities.ComplianceRule, error) {
	now := time.Now().UTC()
	rule := &entities.ComplianceRule{
		Name:        req.Name,
		Description: req.Description,
		RuleType:    req.RuleType,
		Conditions:  req.Conditions,
		Actions:     req.Actions,
		IsActive:    true,
		CreatedBy:   &createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create compliance rule: %w", err)
	}

	s.logger.Info("Compliance rule created", "rule_id", rule.ID, "rule_type", rule.RuleType)
	return rule, nil
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// truthy mirrors the loose truthiness userData values arrive with from JSON:
// false, nil, zero, and empty string are false, everything else true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}

func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if fa, okA := toFloat(a); okA {
		if fb, okB := toFloat(b); okB {
			return fa == fb
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
