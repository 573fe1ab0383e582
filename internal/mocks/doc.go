// Package mocks provides shared function-field mocks of the service and
// auth interfaces for handler and middleware tests.
//
// Each mock has one Fn field per interface method. When a field is nil the
// mock returns its zero-value defaults.
//
//	things := &mocks.MockThingService{
//	    GetThingFn: func(ctx context.Context, id int64) (domain.Thing, error) {
//	        return domain.Thing{ID: id, Name: "The Thing"}, nil
//	    },
//	}
package mocks
