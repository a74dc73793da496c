// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package system_test

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/bureau-foundation/node-proxy/lib/redfish"
	"github.com/bureau-foundation/node-proxy/lib/redfish/redfishtest"
	"github.com/bureau-foundation/node-proxy/lib/system"
)

const (
	driveURL        = "/redfish/v1/Systems/1/Storage/RAID.1/Drives/Disk.0"
	createRebootJob = "/redfish/v1/Managers/iDRAC.Embedded.1/Oem/Dell/DellJobService/Actions/DellJobService.CreateRebootJob"
	setupJobQueue   = "/redfish/v1/Managers/iDRAC.Embedded.1/Oem/Dell/DellJobService/Actions/DellJobService.SetupJobQueue"
)

func newDell(t *testing.T, controller *redfishtest.Controller) *system.Dell {
	t.Helper()
	d := system.NewDell(testParams(controller))
	ctx := context.Background()
	if err := d.Graph().Discover(ctx); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if err := d.Update(ctx); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return d
}

func lastCall(t *testing.T, controller *redfishtest.Controller, method, path string) redfishtest.Call {
	t.Helper()
	calls := controller.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Method == method && calls[i].Path == path {
			return calls[i]
		}
	}
	t.Fatalf("no %s %s in %v", method, path, calls)
	return redfishtest.Call{}
}

func TestDellDeviceLED(t *testing.T) {
	controller := redfishtest.New()
	redfishtest.SingleSystem(controller)
	d := newDell(t, controller)
	ctx := context.Background()

	status, err := d.DeviceLEDOn(ctx, "Disk.0")
	if err != nil {
		t.Fatalf("DeviceLEDOn: %v", err)
	}
	if status != http.StatusNoContent {
		t.Errorf("status = %d", status)
	}
	call := lastCall(t, controller, http.MethodPatch, driveURL)
	if want := map[string]any{"LocationIndicatorActive": true}; !reflect.DeepEqual(call.Body, want) {
		t.Errorf("body = %v, want %v", call.Body, want)
	}

	if _, err := d.DeviceLEDOff(ctx, "Disk.0"); err != nil {
		t.Fatalf("DeviceLEDOff: %v", err)
	}
	call = lastCall(t, controller, http.MethodPatch, driveURL)
	if want := map[string]any{"LocationIndicatorActive": false}; !reflect.DeepEqual(call.Body, want) {
		t.Errorf("body = %v, want %v", call.Body, want)
	}

	state, err := d.GetDeviceLED(ctx, "Disk.0")
	if err != nil {
		t.Fatalf("GetDeviceLED: %v", err)
	}
	if state.HTTPCode != http.StatusOK || state.Active == nil || *state.Active {
		t.Errorf("state = %+v, want 200 and inactive", state)
	}
}

func TestDellUnknownDevice(t *testing.T) {
	controller := redfishtest.New()
	redfishtest.SingleSystem(controller)
	d := newDell(t, controller)

	if _, err := d.DeviceLEDOn(context.Background(), "Disk.9"); !errors.Is(err, system.ErrUnknownDevice) {
		t.Fatalf("error = %v, want ErrUnknownDevice", err)
	}
	if _, err := d.GetDeviceLED(context.Background(), "Disk.9"); !errors.Is(err, system.ErrUnknownDevice) {
		t.Fatalf("error = %v, want ErrUnknownDevice", err)
	}
}

func TestDellDeviceLEDControllerError(t *testing.T) {
	controller := redfishtest.New()
	redfishtest.SingleSystem(controller)
	d := newDell(t, controller)
	controller.Handle(http.MethodPatch, driveURL, func(redfishtest.Call) (*redfish.Response, error) {
		return nil, &redfish.Error{Kind: redfish.KindStatus, Method: http.MethodPatch, Path: driveURL, Status: http.StatusBadRequest, Err: errors.New("bad request")}
	})

	_, err := d.SetDeviceLED(context.Background(), "Disk.0", true)
	var controllerErr *redfish.Error
	if !errors.As(err, &controllerErr) || controllerErr.Status != http.StatusBadRequest {
		t.Fatalf("error = %v, want the controller's 400", err)
	}
}

func TestDellChassisLED(t *testing.T) {
	controller := redfishtest.New()
	redfishtest.SingleSystem(controller)
	d := newDell(t, controller)
	ctx := context.Background()

	if _, err := d.ChassisLEDOn(ctx); err != nil {
		t.Fatalf("ChassisLEDOn: %v", err)
	}
	call := lastCall(t, controller, http.MethodPatch, "/redfish/v1/Chassis/1")
	if want := map[string]any{"IndicatorLED": "Blinking"}; !reflect.DeepEqual(call.Body, want) {
		t.Errorf("body = %v, want %v", call.Body, want)
	}

	if _, err := d.ChassisLEDOff(ctx); err != nil {
		t.Fatalf("ChassisLEDOff: %v", err)
	}
	call = lastCall(t, controller, http.MethodPatch, "/redfish/v1/Chassis/1")
	if want := map[string]any{"IndicatorLED": "Lit"}; !reflect.DeepEqual(call.Body, want) {
		t.Errorf("body = %v, want %v", call.Body, want)
	}

	controller.Set("/redfish/v1/Chassis/1", map[string]any{"Id": "1", "LocationIndicatorActive": true})
	state, err := d.GetChassisLED(ctx)
	if err != nil {
		t.Fatalf("GetChassisLED: %v", err)
	}
	if state.Active == nil || !*state.Active {
		t.Errorf("state = %+v, want active", state)
	}
}

func TestDellChassisLEDWithoutChassis(t *testing.T) {
	controller := redfishtest.New()
	redfishtest.SingleSystem(controller)
	controller.Set("/redfish/v1/Chassis", redfishtest.Collection("/redfish/v1/Chassis"))
	d := newDell(t, controller)

	if _, err := d.ChassisLEDOn(context.Background()); !errors.Is(err, system.ErrNoChassis) {
		t.Fatalf("error = %v, want ErrNoChassis", err)
	}
}

func TestDellShutdownCreatesAndSchedulesJob(t *testing.T) {
	for _, test := range []struct {
		name  string
		force bool
		want  string
	}{
		{"graceful", false, system.RebootGraceful},
		{"forced", true, system.RebootForced},
	} {
		t.Run(test.name, func(t *testing.T) {
			controller := redfishtest.New()
			redfishtest.SingleSystem(controller)
			controller.Handle(http.MethodPost, createRebootJob, func(redfishtest.Call) (*redfish.Response, error) {
				header := http.Header{}
				header.Set("Location", "/redfish/v1/Managers/iDRAC.Embedded.1/Jobs/JID_123")
				return &redfish.Response{Status: http.StatusOK, Header: header}, nil
			})
			d := newDell(t, controller)

			status, err := d.Shutdown(context.Background(), test.force)
			if err != nil {
				t.Fatalf("Shutdown: %v", err)
			}
			if status != http.StatusNoContent {
				t.Errorf("status = %d", status)
			}

			create := lastCall(t, controller, http.MethodPost, createRebootJob)
			if want := map[string]any{"RebootJobType": test.want}; !reflect.DeepEqual(create.Body, want) {
				t.Errorf("create body = %v, want %v", create.Body, want)
			}
			schedule := lastCall(t, controller, http.MethodPost, setupJobQueue)
			want := map[string]any{"JobArray": []string{"JID_123"}, "StartTimeInterval": "TIME_NOW"}
			if !reflect.DeepEqual(schedule.Body, want) {
				t.Errorf("schedule body = %v, want %v", schedule.Body, want)
			}
		})
	}
}

func TestDellPowerCycle(t *testing.T) {
	controller := redfishtest.New()
	redfishtest.SingleSystem(controller)
	var requested any
	controller.Handle(http.MethodPost, createRebootJob, func(call redfishtest.Call) (*redfish.Response, error) {
		requested = call.Body
		header := http.Header{}
		header.Set("Location", "/redfish/v1/Managers/iDRAC.Embedded.1/Jobs/JID_9")
		return &redfish.Response{Status: http.StatusOK, Header: header}, nil
	})
	d := newDell(t, controller)

	if _, err := d.PowerCycle(context.Background()); err != nil {
		t.Fatalf("PowerCycle: %v", err)
	}
	if want := map[string]any{"RebootJobType": system.RebootCycle}; !reflect.DeepEqual(requested, want) {
		t.Errorf("create body = %v, want %v", requested, want)
	}
}

func TestDellRebootJobWithoutLocation(t *testing.T) {
	controller := redfishtest.New()
	redfishtest.SingleSystem(controller)
	d := newDell(t, controller)

	if _, err := d.Shutdown(context.Background(), false); err == nil {
		t.Fatal("Shutdown succeeded without a job id")
	}
	if n := controller.Count(http.MethodPost, setupJobQueue); n != 0 {
		t.Errorf("job queue called %d times without a job", n)
	}
}
