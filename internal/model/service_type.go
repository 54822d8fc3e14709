package model

// ServiceType discriminates the service a line item points at.  Together with
// a service_ref_id it forms the weak, tagged reference from a quote item to
// its service record.
type ServiceType string

const (
    ServiceRoom    ServiceType = "room"
    ServiceCar     ServiceType = "car"
    ServiceAirport ServiceType = "airport"
    ServiceHotel   ServiceType = "hotel"
    ServiceRentcar ServiceType = "rentcar"
    ServiceTour    ServiceType = "tour"
)

// ServiceTypes lists every service type in presentation order.
var ServiceTypes = []ServiceType{ServiceRoom, ServiceCar, ServiceAirport, ServiceHotel, ServiceRentcar, ServiceTour}

// Valid reports whether t is one of the known service types.
func (t ServiceType) Valid() bool {
    for _, s := range ServiceTypes {
        if s == t {
            return true
        }
    }
    return false
}

// Table returns the name of the table holding service records of this type.
func (t ServiceType) Table() string { return string(t) }
