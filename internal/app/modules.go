package app

import (
	"io"

	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/modules/csv_io"
	"github.com/vk/pipecanvas/modules/distorted_label"
	"github.com/vk/pipecanvas/modules/env_vars"
	"github.com/vk/pipecanvas/modules/fast_detect"
	"github.com/vk/pipecanvas/modules/http_client"
	"github.com/vk/pipecanvas/modules/inner_join"
	"github.com/vk/pipecanvas/modules/print"
	"github.com/vk/pipecanvas/modules/s3"
	"github.com/vk/pipecanvas/modules/socketio"
)

// coreModules is the definitive list of all modules that are compiled into
// the pipecanvas binary. print writes to out.
func coreModules(out io.Writer) []plugin.Module {
	return []plugin.Module{
		&csv_io.Module{},
		&print.Module{Out: out},
		&inner_join.Module{},
		&distorted_label.Module{},
		&fast_detect.Module{},
		&http_client.Module{},
		&env_vars.Module{},
		&s3.Module{},
		&socketio.Module{},
	}
}
