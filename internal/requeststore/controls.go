package requeststore

import (
	"strconv"
	"strings"

	"blood_donation_dashboard/internal/domain"

	"github.com/gin-gonic/gin"
)

// Controls is a change requested by a list screen. Nil fields leave the view as it is.
type Controls struct {
	Status *domain.Status
	Page   *int
}

// Update applies the controls. A filter change always lands on page 1, so a page sent
// alongside a new filter is ignored.
func (v *View) Update(ctrl Controls) {
	if ctrl.Status != nil {
		before := v.Status()
		v.SetStatus(*ctrl.Status)
		if v.Status() != before {
			return
		}
	}
	if ctrl.Page != nil {
		v.SetPage(*ctrl.Page)
	}
}

// ControlsFromQuery reads ?status= and ?page= from a list request.
func ControlsFromQuery(c *gin.Context) Controls {
	var ctrl Controls
	if raw, ok := c.GetQuery("status"); ok {
		status := domain.Status(strings.ToLower(strings.TrimSpace(raw)))
		ctrl.Status = &status
	}
	if raw, ok := c.GetQuery("page"); ok {
		if page, err := strconv.Atoi(raw); err == nil {
			ctrl.Page = &page
		}
	}
	return ctrl
}
