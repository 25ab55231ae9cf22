package auth

import (
	"visionx-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Capability string

const (
	CapCustomersRead      Capability = "customers:read"
	CapCustomersWrite     Capability = "customers:write"
	CapInventoryRead      Capability = "inventory:read"
	CapInventoryWrite     Capability = "inventory:write"
	CapAppointmentsRead   Capability = "appointments:read"
	CapAppointmentsWrite  Capability = "appointments:write"
	CapAppointmentsStatus Capability = "appointments:status"
	CapPrescriptionsRead  Capability = "prescriptions:read"
	CapPrescriptionsWrite Capability = "prescriptions:write"
	CapEyeTestsRead       Capability = "eyetests:read"
	CapEyeTestsWrite      Capability = "eyetests:write"
	CapEyeTestsAnalyze    Capability = "eyetests:analyze"
	CapCart               Capability = "cart"
	CapAnalyticsRead      Capability = "analytics:read"
	CapActivityRead       Capability = "activity:read"
	CapNotifications      Capability = "notifications"
	CapBranchesManage     Capability = "branches:manage"
)

var allCapabilities = []Capability{
	CapCustomersRead, CapCustomersWrite,
	CapInventoryRead, CapInventoryWrite,
	CapAppointmentsRead, CapAppointmentsWrite, CapAppointmentsStatus,
	CapPrescriptionsRead, CapPrescriptionsWrite,
	CapEyeTestsRead, CapEyeTestsWrite, CapEyeTestsAnalyze,
	CapCart, CapAnalyticsRead, CapActivityRead, CapNotifications,
	CapBranchesManage,
}

var rolePolicy = map[models.UserRole]map[Capability]bool{
	models.RoleAdmin: capSet(allCapabilities...),
	models.RoleStaff: capSet(
		CapCustomersRead, CapCustomersWrite,
		CapInventoryRead, CapInventoryWrite,
		CapAppointmentsRead, CapAppointmentsWrite, CapAppointmentsStatus,
		CapPrescriptionsRead, CapPrescriptionsWrite,
		CapEyeTestsRead, CapEyeTestsWrite, CapEyeTestsAnalyze,
		CapCart, CapAnalyticsRead, CapNotifications,
	),
	models.RolePatient: capSet(
		CapCustomersRead,
		CapInventoryRead,
		CapAppointmentsRead, CapAppointmentsWrite,
		CapPrescriptionsRead,
		CapEyeTestsRead, CapEyeTestsWrite, CapEyeTestsAnalyze,
		CapCart, CapNotifications,
	),
}

func capSet(caps ...Capability) map[Capability]bool {
	m := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		m[c] = true
	}
	return m
}

func Allowed(role models.UserRole, capability Capability) bool {
	return rolePolicy[role][capability]
}

// Authorizer checks route capabilities. With enforcement off a denial is
// only logged and the request goes through.
type Authorizer struct {
	enforce bool
	log     *zap.Logger
}

func NewAuthorizer(enforce bool, log *zap.Logger) *Authorizer {
	return &Authorizer{enforce: enforce, log: log}
}

func (a *Authorizer) Require(capability Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := CurrentRole(c)
		if Allowed(role, capability) {
			return c.Next()
		}

		uid, _ := c.Locals(CtxUserIDKey).(uint)
		a.log.Warn("capability denied",
			zap.Uint("user_id", uid),
			zap.String("role", string(role)),
			zap.String("capability", string(capability)),
			zap.String("path", c.Path()),
			zap.Bool("enforced", a.enforce),
		)
		if a.enforce {
			return fiber.NewError(fiber.StatusForbidden, "Forbidden")
		}
		return c.Next()
	}
}
