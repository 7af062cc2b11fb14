package cli

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/inference"
)

// progressBar draws separation progress on a terminal. The bar is only created once
// the first window is reported, since the total is not known before that.
type progressBar struct {
	output io.Writer
	name   string

	lock     sync.Mutex
	progress *mpb.Progress
	bar      *mpb.Bar
	total    int
}

func newProgressBar(output io.Writer, name string) *progressBar {
	return &progressBar{output: output, name: name}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *progressBar) Report() inference.ProgressFunc {
	return func(done int, total int) {
		if total <= 0 {
			return
		}

		p.lock.Lock()
		defer p.lock.Unlock()

		if p.bar == nil {
			p.progress = mpb.New(mpb.WithWidth(64), mpb.WithOutput(p.output))
			p.bar = p.progress.AddBar(int64(total),
				mpb.PrependDecorators(
					decor.Name(p.name+": "),
					decor.CountersNoUnit("%d / %d"),
				),
				mpb.AppendDecorators(
					decor.Percentage(),
					decor.Elapsed(decor.ET_STYLE_GO),
				),
			)
			p.total = total
		}

		// iterative and ensemble backends report one pass after another
		if total != p.total {
			p.bar.SetTotal(int64(total), false)
			p.total = total
		}
		p.bar.SetCurrent(int64(done))
	}
}

func (p *progressBar) Finish() {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.bar == nil {
		return
	}

	p.bar.SetTotal(-1, true)
	p.progress.Wait()
}
