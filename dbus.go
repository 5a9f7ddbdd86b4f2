package main

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"github.com/peer-calls/log"

	"github.com/danielchen8624/smartdim/types"
)

const (
	dbusServiceName   = "dev.smartdim"
	dbusObjectPath    = "/"
	dbusInterfaceName = "dev.smartdim.Controls"

	intensityProp = "Intensity"
	warmthProp    = "Warmth"
)

// Controls is the slice of the daemon the D-Bus surface needs.
type Controls interface {
	Update(ctx context.Context, request types.Request) (types.State, error)
}

type srv struct {
	mu       sync.Mutex
	props    *prop.Properties
	controls Controls
	ctx      context.Context
}

func (s *srv) updateProp(name string, delta float64) *dbus.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.props.Get(dbusInterfaceName, name)
	if err != nil {
		return err
	}

	var value float64

	switch t := v.Value().(type) {
	case float64:
		value = t
	case *float64:
		value = *t
	default:
		return dbus.MakeFailedError(fmt.Errorf("value is not double: %T", v.Value()))
	}

	value += delta

	return s.props.Set(dbusInterfaceName, name, dbus.MakeVariant(value))
}

// UpdateIntensity adjusts the brightness intensity by a relative delta.
func (s *srv) UpdateIntensity(delta float64) *dbus.Error {
	return s.updateProp(intensityProp, delta)
}

// UpdateWarmth adjusts the warmth strength by a relative delta.
func (s *srv) UpdateWarmth(delta float64) *dbus.Error {
	return s.updateProp(warmthProp, delta)
}

// ToggleIntensity mutes or unmutes the brightness control.
func (s *srv) ToggleIntensity() *dbus.Error {
	if _, err := s.controls.Update(s.ctx, types.Request{ToggleIntensity: true}); err != nil {
		return dbus.MakeFailedError(err)
	}

	return nil
}

// ToggleWarmth mutes or unmutes the warmth control.
func (s *srv) ToggleWarmth() *dbus.Error {
	if _, err := s.controls.Update(s.ctx, types.Request{ToggleWarmth: true}); err != nil {
		return dbus.MakeFailedError(err)
	}

	return nil
}

func NewDBus(ctx context.Context, logger log.Logger, controls Controls) (*dbus.Conn, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to dbus: %w", err)
	}

	init := func() error {
		reply, err := conn.RequestName(dbusServiceName, dbus.NameFlagDoNotQueue)
		if err != nil {
			return fmt.Errorf("failed to request name: %w", err)
		}

		if reply != dbus.RequestNameReplyPrimaryOwner {
			return fmt.Errorf("name already taken")
		}

		setControl := func(patch types.StatePatch) *dbus.Error {
			if _, err := controls.Update(ctx, types.Request{State: &patch}); err != nil {
				logger.Error("Failed to set control", err, nil)
				return dbus.MakeFailedError(fmt.Errorf("failed to set control: %w", err))
			}

			return nil
		}

		propsSpec := map[string]map[string]*prop.Prop{
			dbusInterfaceName: {
				intensityProp: {
					Value:    float64(0),
					Writable: true,
					Emit:     prop.EmitTrue,
					Callback: func(c *prop.Change) *dbus.Error {
						intensity, _ := c.Value.(float64)

						return setControl(types.StatePatch{
							Intensity: strconv.FormatFloat(intensity, 'f', -1, 64),
						})
					},
				},
				warmthProp: {
					Value:    float64(0),
					Writable: true,
					Emit:     prop.EmitTrue,
					Callback: func(c *prop.Change) *dbus.Error {
						warmth, _ := c.Value.(float64)

						return setControl(types.StatePatch{
							Warmth: strconv.FormatFloat(warmth, 'f', -1, 64),
						})
					},
				},
			},
		}

		props, err := prop.Export(conn, dbusObjectPath, propsSpec)
		if err != nil {
			return fmt.Errorf("export propsSpec failed: %w", err)
		}

		service := &srv{
			props:    props,
			controls: controls,
			ctx:      ctx,
		}

		if err := conn.Export(service, dbusObjectPath, dbusInterfaceName); err != nil {
			return fmt.Errorf("failed to register interface: %w", err)
		}

		n := &introspect.Node{
			Name: dbusObjectPath,
			Interfaces: []introspect.Interface{
				introspect.IntrospectData,
				prop.IntrospectData,
				{
					Name:       dbusInterfaceName,
					Methods:    introspect.Methods(service),
					Properties: props.Introspection(dbusInterfaceName),
				},
			},
		}

		if err = conn.Export(
			introspect.NewIntrospectable(n),
			dbusObjectPath,
			"org.freedesktop.DBus.Introspectable",
		); err != nil {
			return fmt.Errorf("export introspectable failed: %w", err)
		}

		return nil
	}

	if err := init(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to register dbus: %w", err)
	}

	return conn, nil
}
