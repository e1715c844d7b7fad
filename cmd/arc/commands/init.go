package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
)

// InitCommand implements `arc init <path>` (§6).
type InitCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	path string
}

// NewInitCommand returns the init command.
func NewInitCommand(rootCmd *RootCommand, app *kingpin.Application) *InitCommand {
	c := &InitCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("init", "Scaffold a new arc project.")
	c.Cmd.Arg("path", "Directory to create the project in.").Required().StringVar(&c.path)

	return c
}

func (c InitCommand) Name() string { return c.Cmd.FullCommand() }

func (c InitCommand) Run(ctx context.Context) error {
	if err := os.MkdirAll(c.path, 0o755); err != nil {
		return fmt.Errorf("could not create project directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(c.path, "types"), 0o755); err != nil {
		return fmt.Errorf("could not create types directory: %w", err)
	}

	files := map[string]string{
		"arc.lua":         starterArcLua,
		".luarc.json":     luarcJSON,
		"types/arc.lua":   arcTypeStub,
	}
	for name, content := range files {
		full := filepath.Join(c.path, name)
		if _, err := os.Stat(full); err == nil {
			continue
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return fmt.Errorf("could not write %q: %w", name, err)
		}
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Initialized arc project in %s\n", c.path)
	return nil
}

const starterArcLua = `-- targets.systems.<name> declares a machine arc can reach.
targets.systems.localhost = { kind = "local" }

-- tasks.<name> declares a unit of work. handler receives the system it is
-- bound to for this run.
tasks.hello = {
  handler = function(system)
    local result = system:run_command("echo hello from arc")
    log.info(result.stdout)
    return result.stdout
  end,
  tags = { "hello" },
}
`

const luarcJSON = `{
  "runtime.version": "Lua 5.1",
  "workspace.library": ["types"],
  "diagnostics.globals": ["targets", "tasks", "env", "host", "log", "format", "template", "arc"]
}
`

const arcTypeStub = `---@meta arc

---@class System
---@field name string
local System = {}

---@class CommandResult
---@field stdout string
---@field stderr string
---@field exit_code integer
---@field success fun(): boolean

---@param cmd string
---@return CommandResult
function System:run_command(cmd) end

---@class FileContent

---@class File
---@field content FileContent|string
---@field path string
---@field permissions integer

---@param path string
---@return File
function System:file(path) end

---@class Directory
---@field entries fun(self: Directory): (File|Directory)[]

---@param path string
---@return Directory
function System:directory(path) end

---@param path string
---@return table|nil
function System:stat(path) end
`
