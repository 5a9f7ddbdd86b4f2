package display

import (
	"context"
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/peer-calls/log"

	"github.com/danielchen8624/smartdim/curve"
)

// Display installs per-channel transfer tables on every CRTC of an X11
// screen through the RandR extension. It remembers the last applied
// table and reinstalls it whenever a CRTC changes, so wake-from-sleep
// and monitor hotplug keep the curve.
type Display struct {
	conn *xgb.Conn
	root xproto.Window

	log log.Logger
	wg  sync.WaitGroup

	reqCh      chan tableRequest
	teardownCh chan struct{}
}

// tableRequest carries a table to install, or nil to restore defaults.
type tableRequest struct {
	rgb   *curve.RGB
	errCh chan<- error
}

// New connects to the X server (empty name for the default display) and
// starts watching for CRTC changes.
func New(logger log.Logger, displayName string) (*Display, error) {
	conn, err := xgb.NewConnDisplay(displayName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to display: %w", err)
	}

	if err := randr.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to init randr: %w", err)
	}

	root := xproto.Setup(conn).DefaultScreen(conn).Root

	if err := randr.SelectInputChecked(conn, root, randr.NotifyMaskCrtcChange).Check(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to select crtc notifications: %w", err)
	}

	d := &Display{
		conn:       conn,
		root:       root,
		log:        logger,
		reqCh:      make(chan tableRequest),
		teardownCh: make(chan struct{}, 1),
	}

	crtcChangedCh := make(chan struct{}, 1)

	d.wg.Add(2)

	go func() {
		defer d.wg.Done()
		defer d.log.Trace("event goroutine done", nil)

		for {
			ev, xerr := d.conn.WaitForEvent()
			if ev == nil && xerr == nil {
				// Connection closed.
				return
			}

			if xerr != nil {
				d.log.Trace("x11 event error", log.Ctx{
					"error": xerr.Error(),
				})

				continue
			}

			if ne, ok := ev.(randr.NotifyEvent); ok && ne.SubCode == randr.NotifyCrtcChange {
				select {
				case crtcChangedCh <- struct{}{}:
				default:
				}
			}
		}
	}()

	go func() {
		defer d.wg.Done()
		defer d.log.Trace("table goroutine done", nil)

		// Last applied table. Nil means defaults are in place and CRTC
		// changes must not reinstall anything.
		var last *curve.RGB

		for {
			select {
			case req := <-d.reqCh:
				err := d.installAll(req.rgb)
				if err == nil {
					last = req.rgb
				}

				req.errCh <- err
				close(req.errCh)
			case <-crtcChangedCh:
				if last == nil {
					continue
				}

				d.log.Trace("crtc changed, reapplying", nil)

				if err := d.installAll(last); err != nil {
					d.log.Error("Failed to reapply transfer table", err, nil)
				}
			case <-d.teardownCh:
				return
			}
		}
	}()

	return d, nil
}

// Apply installs the curve on every CRTC, quantized to each CRTC's own
// gamma ramp size.
func (d *Display) Apply(ctx context.Context, rgb curve.RGB) error {
	return d.request(ctx, &rgb)
}

// Restore installs the identity ramp on every CRTC and stops reapplying
// on CRTC changes. RandR has no notion of dropping a ramp, so the
// linear identity is the closest thing to native gamma.
func (d *Display) Restore(ctx context.Context) error {
	return d.request(ctx, nil)
}

func (d *Display) request(ctx context.Context, rgb *curve.RGB) error {
	errCh := make(chan error, 1)

	select {
	case d.reqCh <- tableRequest{rgb: rgb, errCh: errCh}:
	case <-ctx.Done():
		return fmt.Errorf("context done sending table request: %w", ctx.Err())
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to install table: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("context done awaiting table response: %w", ctx.Err())
	}

	return nil
}

// installAll writes the table to every CRTC. An empty CRTC set is a
// logged no-op, not an error.
func (d *Display) installAll(rgb *curve.RGB) error {
	resources, err := randr.GetScreenResourcesCurrent(d.conn, d.root).Reply()
	if err != nil {
		return fmt.Errorf("get screen resources: %w", err)
	}

	if len(resources.Crtcs) == 0 {
		d.log.Info("No CRTCs found, transfer table not applied", nil)
		return nil
	}

	for _, crtc := range resources.Crtcs {
		if err := d.installCrtc(crtc, rgb); err != nil {
			d.log.Error("Failed to set transfer table", err, log.Ctx{
				"crtc": crtc,
			})
		}
	}

	return nil
}

func (d *Display) installCrtc(crtc randr.Crtc, rgb *curve.RGB) error {
	gamma, err := randr.GetCrtcGammaSize(d.conn, crtc).Reply()
	if err != nil {
		return fmt.Errorf("get crtc gamma size: %w", err)
	}

	size := int(gamma.Size)
	if size == 0 {
		return nil
	}

	var r, g, b []uint16

	if rgb == nil {
		r = identityRamp(size)
		g = identityRamp(size)
		b = identityRamp(size)
	} else {
		r = quantizeRamp(rgb.R, size)
		g = quantizeRamp(rgb.G, size)
		b = quantizeRamp(rgb.B, size)
	}

	if err := randr.SetCrtcGammaChecked(d.conn, crtc, gamma.Size, r, g, b).Check(); err != nil {
		return fmt.Errorf("set crtc gamma: %w", err)
	}

	return nil
}

// Close tears down the goroutines and the X connection.
func (d *Display) Close() {
	select {
	case d.teardownCh <- struct{}{}:
		d.conn.Close()
		d.wg.Wait()
	default:
	}
}
