// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/bureau-foundation/node-proxy/lib/netutil"
)

const (
	dellJobService      = "/redfish/v1/Managers/iDRAC.Embedded.1/Oem/Dell/DellJobService"
	dellCreateRebootJob = dellJobService + "/Actions/DellJobService.CreateRebootJob"
	dellSetupJobQueue   = dellJobService + "/Actions/DellJobService.SetupJobQueue"
)

// Reboot job types accepted by the iDRAC job service.
const (
	RebootForced   = "GracefulRebootWithForcedShutdown"
	RebootGraceful = "GracefulRebootWithoutForcedShutdown"
	RebootCycle    = "PowerCycle"
)

// Chassis indicator values. iDRAC maps Blinking to
// LocationIndicatorActive=true and Lit to false.
const (
	IndicatorBlinking = "Blinking"
	IndicatorLit      = "Lit"
)

// ErrNoChassis is returned by chassis LED operations when the
// controller lists no chassis.
var ErrNoChassis = errors.New("controller lists no chassis")

// Dell is the iDRAC System.
type Dell struct {
	*Base
}

// NewDell returns the iDRAC System.
func NewDell(params Params) *Dell {
	return &Dell{Base: newBase("dell", params, nil)}
}

func (d *Dell) DeviceLEDOn(ctx context.Context, device string) (int, error) {
	return d.SetDeviceLED(ctx, device, true)
}

func (d *Dell) DeviceLEDOff(ctx context.Context, device string) (int, error) {
	return d.SetDeviceLED(ctx, device, false)
}

func (d *Dell) ChassisLEDOn(ctx context.Context) (int, error) {
	return d.SetChassisLED(ctx, IndicatorBlinking)
}

func (d *Dell) ChassisLEDOff(ctx context.Context) (int, error) {
	return d.SetChassisLED(ctx, IndicatorLit)
}

func (d *Dell) GetDeviceLED(ctx context.Context, device string) (LEDState, error) {
	endpoint, err := d.driveEndpoint(device)
	if err != nil {
		return LEDState{}, err
	}
	state, err := d.readIndicator(ctx, endpoint)
	if err != nil {
		d.logger.Error("couldn't read the device identification LED", "device", device, "error", err)
		return LEDState{}, err
	}
	return state, nil
}

func (d *Dell) SetDeviceLED(ctx context.Context, device string, on bool) (int, error) {
	endpoint, err := d.driveEndpoint(device)
	if err != nil {
		return 0, err
	}
	response, err := d.graph.Query(ctx, http.MethodPatch, endpoint, map[string]any{"LocationIndicatorActive": on})
	if err != nil {
		d.logger.Error("couldn't set the device identification LED", "device", device, "error", err)
		return 0, err
	}
	return response.Status, nil
}

func (d *Dell) GetChassisLED(ctx context.Context) (LEDState, error) {
	endpoint, err := d.chassisEndpoint()
	if err != nil {
		return LEDState{}, err
	}
	state, err := d.readIndicator(ctx, endpoint)
	if err != nil {
		d.logger.Error("couldn't read the chassis identification LED", "error", err)
		return LEDState{}, err
	}
	return state, nil
}

func (d *Dell) SetChassisLED(ctx context.Context, indicator string) (int, error) {
	endpoint, err := d.chassisEndpoint()
	if err != nil {
		return 0, err
	}
	response, err := d.graph.Query(ctx, http.MethodPatch, endpoint, map[string]any{"IndicatorLED": indicator})
	if err != nil {
		d.logger.Error("couldn't set the chassis identification LED", "indicator", indicator, "error", err)
		return 0, err
	}
	return response.Status, nil
}

func (d *Dell) Shutdown(ctx context.Context, force bool) (int, error) {
	rebootType := RebootGraceful
	if force {
		rebootType = RebootForced
	}
	return d.reboot(ctx, rebootType)
}

func (d *Dell) PowerCycle(ctx context.Context) (int, error) {
	return d.reboot(ctx, RebootCycle)
}

func (d *Dell) reboot(ctx context.Context, rebootType string) (int, error) {
	jobID, err := d.CreateRebootJob(ctx, rebootType)
	if err != nil {
		return 0, err
	}
	return d.ScheduleRebootJob(ctx, jobID)
}

// CreateRebootJob creates a job and returns its id, the last segment
// of the response's Location header.
func (d *Dell) CreateRebootJob(ctx context.Context, rebootType string) (string, error) {
	response, err := d.graph.Query(ctx, http.MethodPost, dellCreateRebootJob, map[string]any{"RebootJobType": rebootType})
	if err != nil {
		d.logger.Error("couldn't create the reboot job", "type", rebootType, "error", err)
		return "", err
	}
	location := strings.TrimRight(response.Header.Get("Location"), "/")
	if location == "" {
		return "", fmt.Errorf("creating %s reboot job: response has no Location header", rebootType)
	}
	jobID := location[strings.LastIndex(location, "/")+1:]
	d.logger.Info("reboot job created", "type", rebootType, "job", jobID)
	return jobID, nil
}

// ScheduleRebootJob queues jobID to start immediately.
func (d *Dell) ScheduleRebootJob(ctx context.Context, jobID string) (int, error) {
	response, err := d.graph.Query(ctx, http.MethodPost, dellSetupJobQueue, map[string]any{
		"JobArray":          []string{jobID},
		"StartTimeInterval": "TIME_NOW",
	})
	if err != nil {
		d.logger.Error("couldn't schedule the reboot job", "job", jobID, "error", err)
		return 0, err
	}
	return response.Status, nil
}

func (d *Dell) chassisEndpoint() (string, error) {
	chassis, err := d.graph.Root("chassis")
	if err != nil {
		return "", err
	}
	members := chassis.MemberURLs()
	if len(members) == 0 {
		return "", ErrNoChassis
	}
	return members[slices.Sorted(maps.Keys(members))[0]], nil
}

func (d *Dell) readIndicator(ctx context.Context, endpoint string) (LEDState, error) {
	response, err := d.graph.Query(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return LEDState{}, err
	}
	state := LEDState{HTTPCode: response.Status}
	if response.Status != http.StatusOK {
		return state, nil
	}
	object, err := netutil.DecodeObject(response.Body)
	if err != nil {
		return LEDState{}, fmt.Errorf("decoding %s: %w", endpoint, err)
	}
	if active, ok := object["LocationIndicatorActive"].(bool); ok {
		state.Active = &active
	}
	return state, nil
}
