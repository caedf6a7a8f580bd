package panel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bnema/goalpanel/internal/domain"
	"github.com/bnema/goalpanel/internal/ports"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidState   = errors.New("display is not in a valid state for this operation")
	ErrNotPresentable = errors.New("snapshot is not presentable")
)

type State int

const (
	StateUninitialized State = iota
	StateReady
	StateHibernating
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateHibernating:
		return "hibernating"
	default:
		return "unknown"
	}
}

const (
	DefaultRotation    = 1
	DefaultPowerSettle = 500 * time.Millisecond
)

type Options struct {
	Driver ports.PanelDriver
	// Pin is optional; a nil pin means the panel is always powered.
	Pin         ports.PowerPin
	Delayer     ports.Delayer
	Rotation    int
	PowerSettle time.Duration
	Logger      logrus.FieldLogger
}

// Surface draws snapshots onto a paged e-paper driver.
type Surface struct {
	driver      ports.PanelDriver
	pin         ports.PowerPin
	delayer     ports.Delayer
	rotation    int
	powerSettle time.Duration
	state       State
	log         logrus.FieldLogger
}

var _ ports.Surface = (*Surface)(nil)

func New(opts Options) *Surface {
	s := &Surface{
		driver:      opts.Driver,
		pin:         opts.Pin,
		delayer:     opts.Delayer,
		rotation:    opts.Rotation,
		powerSettle: opts.PowerSettle,
		log:         opts.Logger,
	}
	if s.delayer == nil {
		s.delayer = ports.SystemDelayer{}
	}
	if s.powerSettle <= 0 {
		s.powerSettle = DefaultPowerSettle
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

func (s *Surface) State() State { return s.state }

func (s *Surface) Init(ctx context.Context) error {
	if s.state != StateUninitialized {
		return fmt.Errorf("init from %s: %w", s.state, ErrInvalidState)
	}

	if s.pin != nil {
		if err := s.pin.High(); err != nil {
			return fmt.Errorf("enable display power: %w", err)
		}
		s.delayer.Delay(ctx, s.powerSettle)
	}

	if err := s.driver.Init(); err != nil {
		return fmt.Errorf("initialize panel driver: %w", err)
	}
	s.driver.SetRotation(s.rotation)
	s.driver.SetTextColor(ports.ColorBlack)
	s.state = StateReady

	s.log.WithFields(logrus.Fields{
		"width":  s.driver.Width(),
		"height": s.driver.Height(),
	}).Info("display initialized")
	return nil
}

func (s *Surface) Render(snapshot domain.Snapshot) error {
	if s.state != StateReady {
		return fmt.Errorf("render from %s: %w", s.state, ErrInvalidState)
	}
	if !snapshot.Presentable {
		return ErrNotPresentable
	}

	s.paint(func(d ports.PanelDriver) { drawGoal(d, snapshot) })
	return nil
}

func (s *Surface) RenderError(message string) error {
	if s.state != StateReady {
		return fmt.Errorf("render error from %s: %w", s.state, ErrInvalidState)
	}

	s.paint(func(d ports.PanelDriver) {
		d.SetFont(ports.FontMedium)
		d.SetCursor(errorLabelX, errorLabelY)
		d.Print(errorLabel)
		d.SetCursor(errorLabelX, errorTextY)
		d.Print(message)
	})
	s.log.WithField("message", message).Info("error displayed")
	return nil
}

// Hibernate parks the controller, then cuts and releases the power rail.
// From Uninitialized only the rail is handled.
func (s *Surface) Hibernate() error {
	if s.state == StateHibernating {
		return nil
	}

	if s.state == StateReady {
		s.driver.Hibernate()
	}
	s.state = StateHibernating

	var err error
	if s.pin != nil {
		if lowErr := s.pin.Low(); lowErr != nil {
			err = errors.Join(err, fmt.Errorf("cut display power: %w", lowErr))
		}
		if relErr := s.pin.Release(); relErr != nil {
			err = errors.Join(err, fmt.Errorf("release power pin: %w", relErr))
		}
	}

	s.log.Info("display hibernated and powered off")
	return err
}

func (s *Surface) paint(draw func(ports.PanelDriver)) {
	d := s.driver
	d.SetFullWindow()
	d.FirstPage()
	for {
		d.FillScreen(ports.ColorWhite)
		draw(d)
		if !d.NextPage() {
			return
		}
	}
}

func drawGoal(d ports.PanelDriver, snapshot domain.Snapshot) {
	d.SetFont(ports.FontSmall)
	d.SetCursor(marginLeft, titleY)
	d.Print(titleText)

	if !snapshot.LastUpdateSuccess {
		drawErrorIcon(d)
	}

	d.SetFont(ports.FontLarge)
	d.SetCursor(marginLeft, mainTextY)
	d.Print(strconv.Itoa(snapshot.DaysRemaining))

	d.SetFont(ports.FontSmall)
	d.SetCursor(marginLeft, subtitleY)
	d.Print(daysLabel)

	d.SetFont(ports.FontDefault)
	d.SetCursor(marginLeft, detailY)
	d.Print(snapshot.BreakdownLabel())

	d.DrawLine(dividerX, marginTop, dividerX, dividerEndY, ports.ColorBlack)

	d.SetFont(ports.FontLarge)
	d.SetCursor(dividerX+20, mainTextY)
	d.Print(snapshot.ProgressLabel())

	d.SetFont(ports.FontSmall)
	d.SetCursor(dividerX+20, subtitleY)
	d.Print(percentLabel)

	barWidth := d.Width() - marginLeft - marginRight
	d.DrawRect(marginLeft, progressBarY, barWidth, progressBarHeight, ports.ColorBlack)
	if fill := FillWidth(snapshot.ProgressPercent, barWidth, progressBarInset); fill > 0 {
		d.FillRect(marginLeft+progressBarInset, progressBarY+progressBarInset,
			fill, progressBarHeight-2*progressBarInset, ports.ColorBlack)
	}

	d.SetFont(ports.FontSmall)
	dateWidth, _ := d.TextBounds(snapshot.TargetDateLabel)
	d.SetCursor((d.Width()-dateWidth)/2, dateY)
	d.Print(snapshot.TargetDateLabel)

	d.SetFont(ports.FontDefault)
	d.SetCursor(marginLeft, d.Height()-marginBottom)
	d.Print(snapshot.StatusLine())
}

func drawErrorIcon(d ports.PanelDriver) {
	x := d.Width() - errorIconMargin
	y := marginTop
	d.DrawLine(x, y, x+errorIconSpan, y+errorIconSpan, ports.ColorBlack)
	d.DrawLine(x+errorIconSpan, y, x, y+errorIconSpan, ports.ColorBlack)
	d.DrawCircle(x+errorIconSpan/2, y+errorIconSpan/2, errorIconRadius, ports.ColorBlack)
}
