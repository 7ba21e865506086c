package scheduling

import "github.com/BruksfildServices01/salon-scheduler/internal/httperr"

// PreparationBufferMinutes é somado uma única vez por agendamento,
// independente da quantidade de serviços.
const PreparationBufferMinutes = 15

type ServiceInfo struct {
	ID          uint
	Name        string
	DurationMin int
	Active      bool
}

// Catalog is the service reference data the scheduler reads, keyed by id.
type Catalog map[uint]ServiceInfo

func NewCatalog(services ...ServiceInfo) Catalog {
	c := make(Catalog, len(services))
	for _, s := range services {
		c[s.ID] = s
	}
	return c
}

// OccupiedMinutes returns the minutes an appointment with these services blocks
// on the calendar: the sum of the durations plus the preparation buffer.
// Inactive services still resolve so existing appointments keep their length.
func (c Catalog) OccupiedMinutes(serviceIDs []uint) (int, error) {
	if len(serviceIDs) == 0 {
		return 0, httperr.ErrBusiness(httperr.CodeEmptySelection)
	}

	total := 0
	for _, id := range serviceIDs {
		svc, ok := c[id]
		if !ok {
			return 0, unknownService(id)
		}
		total += svc.DurationMin
	}

	return total + PreparationBufferMinutes, nil
}

// BookableMinutes is OccupiedMinutes for a new booking: every service must
// exist and be active.
func (c Catalog) BookableMinutes(serviceIDs []uint) (int, error) {
	for _, id := range serviceIDs {
		if svc, ok := c[id]; !ok || !svc.Active {
			return 0, unknownService(id)
		}
	}
	return c.OccupiedMinutes(serviceIDs)
}

func unknownService(id uint) error {
	return httperr.ErrBusinessMeta(httperr.CodeUnknownService, map[string]any{
		"service_id": id,
	})
}
