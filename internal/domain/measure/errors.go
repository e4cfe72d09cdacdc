package measure

import "errors"

// ErrInvalidMeasurementFormat is returned for any raw value that cannot be
// turned into a positive canonical measurement.
var ErrInvalidMeasurementFormat = errors.New("invalid measurement format")
