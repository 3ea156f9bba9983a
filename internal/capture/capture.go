// Package capture renders pages in a real browser (via rod) and
// extracts the structural signals the prediction engine consumes.
package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"ctalens/internal/model"
)

// Config controls how pages are captured.
type Config struct {
	// BrowserURL is the devtools control URL of a remote browser. Empty
	// launches a local one.
	BrowserURL string
	// Timeout bounds a single capture end to end.
	Timeout time.Duration
	// UserAgent is sent on robots.txt fetches.
	UserAgent string
	// RespectRobots skips pages disallowed by robots.txt.
	RespectRobots bool
}

// Snapshot is one rendered page with its extracted structure.
type Snapshot struct {
	URL            string
	Device         model.DeviceType
	ViewportWidth  float64
	ViewportHeight float64
	// FoldLine is the above-the-fold boundary in page coordinates. It
	// equals the emulated viewport height.
	FoldLine   float64
	HTML       string
	Structure  *Structure
	CapturedAt time.Time
}

// Capturer renders pages with a rod-controlled browser.
type Capturer struct {
	cfg Config
}

func New(cfg Config) *Capturer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Capturer{cfg: cfg}
}

// deviceViewport maps a device type onto an emulated viewport.
func deviceViewport(device model.DeviceType) (width, height int, mobile bool) {
	switch device {
	case model.DeviceMobile:
		return 390, 844, true
	case model.DeviceTablet:
		return 820, 1180, true
	default:
		return 1280, 800, false
	}
}

// Capture renders the page under the given device's viewport, extracts
// its structure, and enriches element records with live geometry.
func (c *Capturer) Capture(ctx context.Context, rawURL string, device model.DeviceType) (*Snapshot, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse capture url: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}

	if c.cfg.RespectRobots {
		allowed, err := Allowed(ctx, u, c.cfg.UserAgent)
		if err == nil && !allowed {
			return nil, fmt.Errorf("capture %s: disallowed by robots.txt", u.String())
		}
	}

	browser := rod.New().Context(ctx).Timeout(c.cfg.Timeout)
	if c.cfg.BrowserURL != "" {
		browser = browser.ControlURL(c.cfg.BrowserURL)
	}
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer browser.MustClose()

	page, err := browser.Page(proto.TargetCreateTarget{URL: u.String()})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.MustClose()

	width, height, isMobile := deviceViewport(device)
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
		Mobile:            isMobile,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	htmlStr, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}

	structure, err := ExtractStructure(htmlStr, u.Hostname())
	if err != nil {
		return nil, fmt.Errorf("extract structure: %w", err)
	}

	// Geometry comes from the live page, not the serialized HTML.
	// A mismatch between the DOM walk and the live query leaves the
	// records without geometry; normalization reports that as a data
	// gap rather than failing the capture.
	if geoms, err := collectGeometry(page); err == nil && len(geoms) == len(structure.RawElements) {
		for i := range structure.RawElements {
			g := geoms[i]
			structure.RawElements[i].X = &g.X
			structure.RawElements[i].Y = &g.Y
			structure.RawElements[i].Width = &g.W
			structure.RawElements[i].Height = &g.H
			visible := g.Visible
			structure.RawElements[i].Visible = &visible
		}
	}

	return &Snapshot{
		URL:            u.String(),
		Device:         device,
		ViewportWidth:  float64(width),
		ViewportHeight: float64(height),
		FoldLine:       float64(height),
		HTML:           htmlStr,
		Structure:      structure,
		CapturedAt:     time.Now().UTC(),
	}, nil
}

type geometry struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
	Visible bool    `json:"v"`
}

// collectGeometryJS walks the same selectors, in the same order, as
// ExtractStructure so the two passes zip together one to one.
const collectGeometryJS = `() => {
	const rect = el => {
		const r = el.getBoundingClientRect();
		const visible = (r.width > 0 || r.height > 0) && getComputedStyle(el).visibility !== 'hidden';
		return {x: r.x + window.scrollX, y: r.y + window.scrollY, w: r.width, h: r.height, v: visible};
	};
	const collect = sel => Array.from(document.querySelectorAll(sel)).map(rect);
	const anchors = Array.from(document.querySelectorAll('a[href]')).filter(a => {
		const h = (a.getAttribute('href') || '').trim();
		return h !== '' && !h.startsWith('#');
	}).map(rect);
	return [].concat(
		collect('button, input[type=submit], input[type=button]'),
		anchors,
		collect('form'),
		collect('input:not([type=hidden]):not([type=submit]):not([type=button]), select, textarea'),
	);
}`

func collectGeometry(page *rod.Page) ([]geometry, error) {
	res, err := page.Eval(collectGeometryJS)
	if err != nil {
		return nil, err
	}
	var geoms []geometry
	if err := json.Unmarshal([]byte(res.Value.JSON("", "")), &geoms); err != nil {
		return nil, err
	}
	return geoms, nil
}
