// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import "github.com/beevik/cmd"

// A command is stored as the data of each cmd tree entry.
type command struct {
	name        string
	brief       string
	description string
	usage       string
	run         func(h *Host, c cmd.Selection) error
}

// A commandGroup lists the commands of a tree in the order they were added,
// for help output.
type commandGroup struct {
	title    string
	commands []*command
	subtrees map[string]*commandGroup
}

var (
	cmds     *cmd.Tree
	cmdIndex *commandGroup
)

func newCommandGroup(title string) *commandGroup {
	return &commandGroup{title: title, subtrees: make(map[string]*commandGroup)}
}

func addCommand(t *cmd.Tree, g *commandGroup, c *command) {
	t.AddCommand(cmd.CommandDescriptor{
		Name:        c.name,
		Brief:       c.brief,
		Description: c.description,
		Usage:       c.usage,
		Data:        c,
	})
	g.commands = append(g.commands, c)
}

func addSubtree(t *cmd.Tree, g *commandGroup, name, brief string) (*cmd.Tree, *commandGroup) {
	sub := t.AddSubtree(cmd.TreeDescriptor{Name: name, Brief: brief})
	sg := newCommandGroup(name)
	g.subtrees[name] = sg
	g.commands = append(g.commands, &command{name: name, brief: brief})
	return sub, sg
}

func init() {
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "r6502"})
	g := newCommandGroup("r6502")

	addCommand(root, g, &command{
		name:        "help",
		brief:       "Display help for a command",
		description: "Display help for a command.",
		usage:       "help [<command>]",
		run:         (*Host).cmdHelp,
	})

	// Breakpoint commands
	bp, bpg := addSubtree(root, g, "breakpoint", "Breakpoint commands")
	addCommand(bp, bpg, &command{
		name:        "list",
		brief:       "List breakpoints",
		description: "List all current breakpoints.",
		usage:       "breakpoint list",
		run:         (*Host).cmdBreakpointList,
	})
	addCommand(bp, bpg, &command{
		name:  "add",
		brief: "Add a breakpoint",
		description: "Add a breakpoint at the specified address." +
			" The breakpoint starts enabled.",
		usage: "breakpoint add <address>",
		run:   (*Host).cmdBreakpointAdd,
	})
	addCommand(bp, bpg, &command{
		name:        "remove",
		brief:       "Remove a breakpoint",
		description: "Remove a breakpoint at the specified address.",
		usage:       "breakpoint remove <address>",
		run:         (*Host).cmdBreakpointRemove,
	})
	addCommand(bp, bpg, &command{
		name:        "enable",
		brief:       "Enable a breakpoint",
		description: "Enable a previously added breakpoint.",
		usage:       "breakpoint enable <address>",
		run:         (*Host).cmdBreakpointEnable,
	})
	addCommand(bp, bpg, &command{
		name:  "disable",
		brief: "Disable a breakpoint",
		description: "Disable a previously added breakpoint. This" +
			" prevents the breakpoint from being hit when running the" +
			" CPU.",
		usage: "breakpoint disable <address>",
		run:   (*Host).cmdBreakpointDisable,
	})

	// Data breakpoint commands
	db, dbg := addSubtree(root, g, "databreakpoint", "Data breakpoint commands")
	addCommand(db, dbg, &command{
		name:        "list",
		brief:       "List data breakpoints",
		description: "List all current data breakpoints.",
		usage:       "databreakpoint list",
		run:         (*Host).cmdDataBreakpointList,
	})
	addCommand(db, dbg, &command{
		name:  "add",
		brief: "Add a data breakpoint",
		description: "Add a new data breakpoint at the specified" +
			" memory address. When the CPU stores data at this address, the" +
			" breakpoint will stop the CPU. Optionally, a byte" +
			" value may be specified, and the CPU will stop only" +
			" when this value is stored.",
		usage: "databreakpoint add <address> [<value>]",
		run:   (*Host).cmdDataBreakpointAdd,
	})
	addCommand(db, dbg, &command{
		name:  "remove",
		brief: "Remove a data breakpoint",
		description: "Remove a previously added data breakpoint at" +
			" the specified memory address.",
		usage: "databreakpoint remove <address>",
		run:   (*Host).cmdDataBreakpointRemove,
	})
	addCommand(db, dbg, &command{
		name:        "enable",
		brief:       "Enable a data breakpoint",
		description: "Enable a previously added data breakpoint.",
		usage:       "databreakpoint enable <address>",
		run:         (*Host).cmdDataBreakpointEnable,
	})
	addCommand(db, dbg, &command{
		name:  "disable",
		brief: "Disable a data breakpoint",
		description: "Disable a previously added data breakpoint. Stores to" +
			" its address no longer stop the CPU until it is enabled again.",
		usage: "databreakpoint disable <address>",
		run:   (*Host).cmdDataBreakpointDisable,
	})

	addCommand(root, g, &command{
		name:  "disassemble",
		brief: "Disassemble code",
		description: "Disassemble machine code starting at the requested" +
			" address. The number of instruction lines to disassemble may be" +
			" specified as an option. If no address is specified, the" +
			" disassembly continues from where the last disassembly left off.",
		usage: "disassemble [<address>] [<lines>]",
		run:   (*Host).cmdDisassemble,
	})
	addCommand(root, g, &command{
		name:  "load",
		brief: "Load a binary file",
		description: "Load the raw contents of a binary file into the" +
			" emulated system's memory at the specified address, and move" +
			" the program counter there.",
		usage: "load <filename> <address>",
		run:   (*Host).cmdLoad,
	})

	// Memory commands
	me, meg := addSubtree(root, g, "memory", "Memory commands")
	addCommand(me, meg, &command{
		name:  "dump",
		brief: "Dump memory at address",
		description: "Dump the contents of memory starting from the" +
			" specified address. The number of bytes to dump may be" +
			" specified as an option. If no address is specified, the" +
			" memory dump continues from where the last dump left off.",
		usage: "memory dump [<address>] [<bytes>]",
		run:   (*Host).cmdMemoryDump,
	})
	addCommand(me, meg, &command{
		name:  "set",
		brief: "Set memory at address",
		description: "Set the contents of memory starting from the specified" +
			" address. The values to assign should be a series of" +
			" space-separated byte values.",
		usage: "memory set <address> <byte> [<byte> ...]",
		run:   (*Host).cmdMemorySet,
	})

	addCommand(root, g, &command{
		name:        "quit",
		brief:       "Quit the program",
		description: "Quit the program.",
		usage:       "quit",
		run:         (*Host).cmdQuit,
	})
	addCommand(root, g, &command{
		name:  "register",
		brief: "View or change register values",
		description: "When used without arguments, this command displays the current" +
			" contents of the CPU registers. When used with arguments, this" +
			" command changes the value of a register or one of the CPU's status" +
			" flags. Allowed register names include A, X, Y, PC and SP. Allowed status" +
			" flag names include N (Sign), Z (Zero), C (Carry), I (InterruptDisable)," +
			" D (Decimal) and V (Overflow).",
		usage: "register [<name> <value>]",
		run:   (*Host).cmdRegister,
	})
	addCommand(root, g, &command{
		name:  "reset",
		brief: "Reset the CPU",
		description: "Reset the CPU, loading the program counter from the" +
			" reset vector at $FFFC.",
		usage: "reset",
		run:   (*Host).cmdReset,
	})
	addCommand(root, g, &command{
		name:  "run",
		brief: "Run the CPU",
		description: "Run the CPU until a breakpoint is hit, an unknown opcode" +
			" is fetched, or the user types Ctrl-C. If a count is given, at" +
			" most that many instructions are run.",
		usage: "run [<count>]",
		run:   (*Host).cmdRun,
	})
	addCommand(root, g, &command{
		name:  "script",
		brief: "Run a Lua script",
		description: "Load a Lua script from disk and run it against the" +
			" emulated system. Scripts may call peek, poke, dump, reg," +
			" setreg, step, reset, cycles and print.",
		usage: "script <filename>",
		run:   (*Host).cmdScript,
	})
	addCommand(root, g, &command{
		name:  "set",
		brief: "Set a configuration variable",
		description: "Set the value of a configuration variable. To see the" +
			" current values of all configuration variables, type set" +
			" without any arguments.",
		usage: "set [<var> <value>]",
		run:   (*Host).cmdSet,
	})

	// Step commands
	st, stg := addSubtree(root, g, "step", "Step the debugger")
	addCommand(st, stg, &command{
		name:  "in",
		brief: "Step into next instruction",
		description: "Step the CPU by a single instruction. If the" +
			" instruction is a subroutine call, step into the subroutine." +
			" The number of steps may be specified as an option.",
		usage: "step in [<count>]",
		run:   (*Host).cmdStepIn,
	})
	addCommand(st, stg, &command{
		name:  "over",
		brief: "Step over next instruction",
		description: "Step the CPU by a single instruction. If the" +
			" instruction is a subroutine call, step over the subroutine." +
			" The number of steps may be specified as an option.",
		usage: "step over [<count>]",
		run:   (*Host).cmdStepOver,
	})

	addCommand(root, g, &command{
		name:  "trap",
		brief: "Run until the program traps",
		description: "Run the CPU until an instruction jumps or branches to" +
			" itself, then report the trap address and the cycle count." +
			" Test programs signal success or failure this way.",
		usage: "trap",
		run:   (*Host).cmdTrap,
	})

	// Add command shortcuts.
	root.AddShortcut("b", "breakpoint")
	root.AddShortcut("ba", "breakpoint add")
	root.AddShortcut("br", "breakpoint remove")
	root.AddShortcut("bl", "breakpoint list")
	root.AddShortcut("be", "breakpoint enable")
	root.AddShortcut("bd", "breakpoint disable")
	root.AddShortcut("d", "disassemble")
	root.AddShortcut("db", "databreakpoint")
	root.AddShortcut("dbl", "databreakpoint list")
	root.AddShortcut("dba", "databreakpoint add")
	root.AddShortcut("dbr", "databreakpoint remove")
	root.AddShortcut("dbe", "databreakpoint enable")
	root.AddShortcut("dbd", "databreakpoint disable")
	root.AddShortcut("m", "memory dump")
	root.AddShortcut("ms", "memory set")
	root.AddShortcut("r", "register")
	root.AddShortcut("s", "step over")
	root.AddShortcut("si", "step in")
	root.AddShortcut("?", "help")

	cmds = root
	cmdIndex = g
}
