package main

import (
	"context"
	"fmt"
	"image/color"
	"sync"

	"gioui.org/app"
	"gioui.org/font"
	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/charmbracelet/log"

	internalapp "todo-desk/internal/app"
	"todo-desk/internal/config"
	"todo-desk/internal/ui"
	"todo-desk/pkg/task"
)

const filterAll = "ALL"

type row struct {
	done   widget.Bool
	edit   widget.Clickable
	delete widget.Clickable
}

type taskForm struct {
	open      bool
	base      task.Task // zero when adding
	title     widget.Editor
	desc      widget.Editor
	due       widget.Editor
	priority  widget.Enum
	completed widget.Bool
	save      widget.Clickable
	cancel    widget.Clickable
	err       string
}

type desk struct {
	ctx        context.Context
	win        *app.Window
	backend    *internalapp.App
	configPath string

	th      *material.Theme
	palette ui.Palette

	// written by worker goroutines
	mu    sync.Mutex
	tasks []task.Task
	err   error

	search   widget.Editor
	priority widget.Enum
	list     widget.List
	rows     map[string]*row
	addBtn   widget.Clickable
	themeBtn widget.Clickable

	form taskForm

	confirmID  string
	confirmYes widget.Clickable
	confirmNo  widget.Clickable
}

func newDesk(ctx context.Context, backend *internalapp.App, configPath string) *desk {
	d := &desk{
		ctx:        ctx,
		backend:    backend,
		configPath: configPath,
		rows:       make(map[string]*row),
	}
	d.th = material.NewTheme()
	d.th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	d.setTheme(backend.Config.UI.Theme)

	d.list.Axis = layout.Vertical
	d.search.SingleLine = true
	d.priority.Value = filterAll
	d.form.title.SingleLine = true
	d.form.due.SingleLine = true
	return d
}

func (d *desk) setTheme(name string) {
	d.palette = ui.PaletteFor(name)
	d.th.Palette = d.palette.Material()
}

func (d *desk) run(w *app.Window) error {
	d.win = w
	go d.load()

	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			visible, err := d.update(gtx)
			d.layout(gtx, visible, err)
			e.Frame(gtx.Ops)
		}
	}
}

// Workers

// load refreshes the list from the Service. On failure the previous list
// stays on screen next to the error.
func (d *desk) load() {
	tasks, err := d.backend.Tasks.GetAllTasks(d.ctx)
	d.mu.Lock()
	if err != nil {
		log.Error("load tasks", "err", err)
		d.err = err
	} else {
		d.tasks, d.err = tasks, nil
	}
	d.mu.Unlock()
	d.win.Invalidate()
}

// async runs fn off the frame loop, then reloads the list.
func (d *desk) async(what string, fn func(ctx context.Context) error) {
	go func() {
		if err := fn(d.ctx); err != nil {
			log.Error(what, "err", err)
			d.mu.Lock()
			d.err = fmt.Errorf("%s: %w", what, err)
			d.mu.Unlock()
			d.win.Invalidate()
			return
		}
		d.load()
	}()
}

func (d *desk) snapshot() ([]task.Task, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tasks, d.err
}

// Events

func (d *desk) filter() task.Filter {
	f := task.Filter{Query: d.search.Text()}
	if d.priority.Value != filterAll {
		f.Priority = task.Priority(d.priority.Value)
	}
	return f
}

func (d *desk) row(id string) *row {
	r, ok := d.rows[id]
	if !ok {
		r = &row{}
		d.rows[id] = r
	}
	return r
}

func (d *desk) update(gtx layout.Context) ([]task.Task, error) {
	for {
		if _, ok := d.search.Update(gtx); !ok {
			break
		}
	}
	d.priority.Update(gtx)

	all, err := d.snapshot()
	visible := task.Apply(all, d.filter())
	svc := d.backend.Tasks

	if d.addBtn.Clicked(gtx) {
		d.openForm(task.Task{})
	}
	if d.themeBtn.Clicked(gtx) {
		d.toggleTheme()
	}

	for _, t := range visible {
		r := d.row(t.ID)
		r.done.Value = t.Completed
		if r.done.Update(gtx) {
			id := t.ID
			d.async("toggle task", func(ctx context.Context) error {
				_, _, err := svc.ToggleTaskCompletion(ctx, id)
				return err
			})
		}
		if r.edit.Clicked(gtx) {
			d.openForm(t)
		}
		if r.delete.Clicked(gtx) {
			d.confirmID = t.ID
		}
	}

	if d.confirmID != "" {
		if d.confirmYes.Clicked(gtx) {
			id := d.confirmID
			d.confirmID = ""
			delete(d.rows, id)
			d.async("delete task", func(ctx context.Context) error {
				return svc.DeleteTask(ctx, id)
			})
		}
		if d.confirmNo.Clicked(gtx) {
			d.confirmID = ""
		}
	}

	if d.form.open {
		if d.form.save.Clicked(gtx) {
			d.submitForm()
		}
		if d.form.cancel.Clicked(gtx) {
			d.form.open = false
		}
	}
	return visible, err
}

func (d *desk) openForm(t task.Task) {
	f := ui.FormFor(t)
	if f.Priority == "" {
		f.Priority = string(task.Medium)
	}
	d.form.base = t
	d.form.title.SetText(f.Title)
	d.form.desc.SetText(f.Description)
	d.form.due.SetText(f.Due)
	d.form.priority.Value = f.Priority
	d.form.completed.Value = f.Completed
	d.form.err = ""
	d.form.open = true
}

func (d *desk) submitForm() {
	f := ui.TaskForm{
		Title:       d.form.title.Text(),
		Description: d.form.desc.Text(),
		Priority:    d.form.priority.Value,
		Due:         d.form.due.Text(),
		Completed:   d.form.completed.Value,
	}
	t, err := f.Build(d.form.base)
	if err != nil {
		d.form.err = err.Error()
		return
	}
	d.form.open = false

	svc := d.backend.Tasks
	if d.form.base.ID == "" {
		d.async("add task", func(ctx context.Context) error { return svc.AddTask(ctx, t) })
		return
	}
	d.async("update task", func(ctx context.Context) error { return svc.UpdateTask(ctx, t) })
}

func (d *desk) toggleTheme() {
	next := config.ThemeDark
	if d.palette.Name == config.ThemeDark {
		next = config.ThemeLight
	}
	d.setTheme(next)

	go func() {
		cfg, err := config.LoadFile(d.configPath)
		if err == nil {
			cfg.UI.Theme = next
			err = cfg.Save()
		}
		if err != nil {
			log.Warn("save theme", "err", err)
		}
	}()
}

// Layout

func (d *desk) layout(gtx layout.Context, visible []task.Task, err error) layout.Dimensions {
	paint.Fill(gtx.Ops, d.th.Palette.Bg)
	return layout.UniformInset(unit.Dp(16)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(d.layoutHeader),
			layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
			layout.Rigid(d.layoutFilters),
			layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return d.layoutProgress(gtx, visible)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return d.layoutBanner(gtx, err)
			}),
			layout.Rigid(d.layoutForm),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return d.layoutList(gtx, visible)
			}),
		)
	})
}

func (d *desk) muted() color.NRGBA {
	return ui.NRGBA(d.palette.Muted)
}

func (d *desk) tokenColor(tok ui.Token) color.NRGBA {
	return ui.NRGBA(d.palette.Color(tok))
}

func (d *desk) bordered(gtx layout.Context, w layout.Widget) layout.Dimensions {
	border := widget.Border{Color: d.muted(), CornerRadius: unit.Dp(6), Width: unit.Dp(1)}
	return border.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.UniformInset(unit.Dp(8)).Layout(gtx, w)
	})
}

func (d *desk) layoutHeader(gtx layout.Context) layout.Dimensions {
	themeLabel := "Dark theme"
	if d.palette.Name == config.ThemeDark {
		themeLabel = "Light theme"
	}
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Flexed(1, material.H5(d.th, "To-Do").Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			b := material.Button(d.th, &d.themeBtn, themeLabel)
			b.Background = ui.NRGBA(d.palette.Surface)
			b.Color = d.th.Palette.Fg
			return b.Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
		layout.Rigid(material.Button(d.th, &d.addBtn, "Add task").Layout),
	)
}

func (d *desk) layoutFilters(gtx layout.Context) layout.Dimensions {
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return d.bordered(gtx, material.Editor(d.th, &d.search, "Search titles...").Layout)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{}.Layout(gtx,
				layout.Rigid(material.RadioButton(d.th, &d.priority, filterAll, "All").Layout),
				layout.Rigid(material.RadioButton(d.th, &d.priority, string(task.Low), "Low").Layout),
				layout.Rigid(material.RadioButton(d.th, &d.priority, string(task.Medium), "Medium").Layout),
				layout.Rigid(material.RadioButton(d.th, &d.priority, string(task.High), "High").Layout),
			)
		}),
	)
}

func (d *desk) layoutProgress(gtx layout.Context, visible []task.Task) layout.Dimensions {
	percent := task.Progress(visible)
	done := 0
	for _, t := range visible {
		if t.Completed {
			done++
		}
	}
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(material.ProgressBar(d.th, float32(percent/100)).Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			label := material.Caption(d.th, fmt.Sprintf("%.0f%% complete (%d of %d)", percent, done, len(visible)))
			label.Color = d.muted()
			return label.Layout(gtx)
		}),
	)
}

func (d *desk) layoutBanner(gtx layout.Context, err error) layout.Dimensions {
	if err == nil && d.confirmID == "" {
		return layout.Dimensions{}
	}
	return layout.Inset{Top: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		if d.confirmID != "" {
			title := d.confirmID
			if all, _ := d.snapshot(); len(all) > 0 {
				for _, t := range all {
					if t.ID == d.confirmID {
						title = t.Title
						break
					}
				}
			}
			return d.bordered(gtx, func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
					layout.Flexed(1, material.Body1(d.th, fmt.Sprintf("Delete %q?", title)).Layout),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						b := material.Button(d.th, &d.confirmYes, "Delete")
						b.Background = d.tokenColor(ui.TokenHigh)
						return b.Layout(gtx)
					}),
					layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
					layout.Rigid(material.Button(d.th, &d.confirmNo, "Cancel").Layout),
				)
			})
		}
		label := material.Body2(d.th, err.Error())
		label.Color = d.tokenColor(ui.TokenHigh)
		return label.Layout(gtx)
	})
}

func (d *desk) layoutForm(gtx layout.Context) layout.Dimensions {
	if !d.form.open {
		return layout.Dimensions{}
	}
	heading := "New task"
	if d.form.base.ID != "" {
		heading = "Edit task"
	}
	field := func(ed *widget.Editor, hint string) layout.FlexChild {
		return layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Bottom: unit.Dp(6)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				return d.bordered(gtx, material.Editor(d.th, ed, hint).Layout)
			})
		})
	}
	return layout.Inset{Top: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return d.bordered(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(material.H6(d.th, heading).Layout),
				layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),
				field(&d.form.title, "Title"),
				field(&d.form.desc, "Description"),
				field(&d.form.due, "Due date (YYYY-MM-DD)"),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					children := make([]layout.FlexChild, 0, len(task.Priorities)+1)
					for _, p := range task.Priorities {
						children = append(children, layout.Rigid(material.RadioButton(d.th, &d.form.priority, string(p), p.Label()).Layout))
					}
					children = append(children, layout.Rigid(material.CheckBox(d.th, &d.form.completed, "Completed").Layout))
					return layout.Flex{Alignment: layout.Middle}.Layout(gtx, children...)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					if d.form.err == "" {
						return layout.Dimensions{}
					}
					label := material.Body2(d.th, d.form.err)
					label.Color = d.tokenColor(ui.TokenHigh)
					return label.Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{}.Layout(gtx,
						layout.Rigid(material.Button(d.th, &d.form.save, "Save").Layout),
						layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
						layout.Rigid(material.Button(d.th, &d.form.cancel, "Cancel").Layout),
					)
				}),
			)
		})
	})
}

func (d *desk) layoutList(gtx layout.Context, visible []task.Task) layout.Dimensions {
	if len(visible) == 0 {
		label := material.Body1(d.th, "No tasks")
		label.Color = d.muted()
		return layout.Center.Layout(gtx, label.Layout)
	}
	today := task.Today()
	return material.List(d.th, &d.list).Layout(gtx, len(visible), func(gtx layout.Context, i int) layout.Dimensions {
		t := visible[i]
		return layout.Inset{Bottom: unit.Dp(6)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return d.layoutCard(gtx, t, today)
		})
	})
}

func (d *desk) layoutCard(gtx layout.Context, t task.Task, today task.Date) layout.Dimensions {
	r := d.row(t.ID)
	tok := ui.TaskToken(t, today)
	return d.bordered(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
					layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
						cb := material.CheckBox(d.th, &r.done, t.Title)
						if tok == ui.TokenDone {
							cb.Color = d.tokenColor(ui.TokenDone)
						}
						return cb.Layout(gtx)
					}),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						badge := material.Caption(d.th, t.Priority.Label())
						badge.Color = d.tokenColor(ui.StyleToken(t.Priority))
						badge.Font.Weight = font.Bold
						return badge.Layout(gtx)
					}),
				)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if t.Description == "" {
					return layout.Dimensions{}
				}
				return layout.Inset{Left: unit.Dp(32)}.Layout(gtx, material.Body2(d.th, t.Description).Layout)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
					layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
						due := material.Caption(d.th, t.DueLabel())
						due.Color = d.muted()
						if tok == ui.TokenOverdue {
							due.Color = d.tokenColor(ui.TokenOverdue)
						}
						return layout.Inset{Left: unit.Dp(32)}.Layout(gtx, due.Layout)
					}),
					layout.Rigid(material.Button(d.th, &r.edit, "Edit").Layout),
					layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						b := material.Button(d.th, &r.delete, "Delete")
						b.Background = d.tokenColor(ui.TokenHigh)
						return b.Layout(gtx)
					}),
				)
			}),
		)
	})
}
