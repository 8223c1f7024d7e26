package binds

// StaticCommand pairs a stable command name with the literal console
// command written into the bind file. The table order determines slot
// assignment within the static range: first entry, first slot.
type StaticCommand struct {
	Name    string
	Command string
}

// StaticCommands is the fixed command table. Names are the identifiers the
// HTTP surface and CLI accept; commands are what the game console runs.
// Append-only: inserting in the middle shifts every later slot and breaks
// nothing in memory but churns the generated file for no reason.
var StaticCommands = []StaticCommand{
	{"kill", "kill"},
	{"respawn", "respawn"},
	{"autorun", `forward;sprint;chat.add 0 0 "Auto run enabled!"`},
	{"autorun_jump", `forward;sprint;jump;chat.add 0 0 "Auto run and jump enabled!"`},
	{"crouch_attack", `attack;duck;chat.add 0 0 "Auto crouch and attack enabled!"`},
	{"quit_game", "quit"},
	{"disconnect", "disconnect"},
	{"lookat_radius_20", `client.lookatradius 20;chat.add 0 0 "Look radius set to wide (20)"`},
	{"lookat_radius_0", `client.lookatradius 0.0002;chat.add 0 0 "Look radius set to narrow (0.0002)"`},
	{"audio_voices_0", `audio.voices 0;chat.add 0 0 "Voice volume set to 0%"`},
	{"audio_voices_25", `audio.voices 0.25;chat.add 0 0 "Voice volume set to 25%"`},
	{"audio_voices_50", `audio.voices 0.5;chat.add 0 0 "Voice volume set to 50%"`},
	{"audio_voices_75", `audio.voices 0.75;chat.add 0 0 "Voice volume set to 75%"`},
	{"audio_voices_100", `audio.voices 1;chat.add 0 0 "Voice volume set to 100%"`},
	{"audio_master_0", `audio.master 0;chat.add 0 0 "Master volume set to 0%"`},
	{"audio_master_25", `audio.master 0.25;chat.add 0 0 "Master volume set to 25%"`},
	{"audio_master_50", `audio.master 0.5;chat.add 0 0 "Master volume set to 50%"`},
	{"audio_master_75", `audio.master 0.75;chat.add 0 0 "Master volume set to 75%"`},
	{"audio_master_100", `audio.master 1;chat.add 0 0 "Master volume set to 100%"`},
	{"hud_off", "graphics.hud 0"},
	{"hud_on", "graphics.hud 1"},
	{"gesture_wave", "gesture wave"},
	{"gesture_victory", "gesture victory"},
	{"gesture_shrug", "gesture shrug"},
	{"gesture_thumbsup", "gesture thumbsup"},
	{"gesture_hurry", "gesture hurry"},
	{"gesture_ok", "gesture ok"},
	{"gesture_thumbsdown", "gesture thumbsdown"},
	{"gesture_clap", "gesture clap"},
	{"gesture_point", "gesture point"},
	{"gesture_friendly", "gesture friendly"},
	{"gesture_cabbagepatch", "gesture cabbagepatch"},
	{"gesture_twist", "gesture twist"},
	{"gesture_raisetheroof", "gesture raisetheroof"},
	{"gesture_beatchest", "gesture beatchest"},
	{"gesture_throatcut", "gesture throatcut"},
	{"gesture_fingergun", "gesture fingergun"},
	{"gesture_shush", "gesture shush"},
	{"gesture_shush_vocal", "gesture shush_vocal"},
	{"gesture_watchingyou", "gesture watchingyou"},
	{"gesture_loser", "gesture loser"},
	{"gesture_nono", "gesture nono"},
	{"gesture_knucklescrack", "gesture knucklescrack"},
	{"gesture_rps", "gesture rps"},
	{"noclip_true", `noclip true;chat.add 0 0 "Noclip enabled!"`},
	{"noclip_false", `noclip false;chat.add 0 0 "Noclip disabled!"`},
	{"global_god_true", `global.god true;chat.add 0 0 "God mode enabled!"`},
	{"global_god_false", `global.god false;chat.add 0 0 "God mode disabled!"`},
	{"env_time_0", `env.time 0;chat.add 0 0 "Time set to 00:00 (midnight)"`},
	{"env_time_4", `env.time 4;chat.add 0 0 "Time set to 04:00 (early morning)"`},
	{"env_time_8", `env.time 8;chat.add 0 0 "Time set to 08:00 (morning)"`},
	{"env_time_12", `env.time 12;chat.add 0 0 "Time set to 12:00 (noon)"`},
	{"env_time_16", `env.time 16;chat.add 0 0 "Time set to 16:00 (afternoon)"`},
	{"env_time_20", `env.time 20;chat.add 0 0 "Time set to 20:00 (evening)"`},
	{"env_time_24", `env.time 24;chat.add 0 0 "Time set to 24:00 (midnight)"`},
	{"teleport2marker", `teleport2marker;chat.add 0 0 "Teleported to marker!"`},
	{"combatlog", "combatlog"},
	{"console_clear", "console.clear"},
	{"consoletoggle", "consoletoggle"},
	{"cancel_all_crafting", `craft.cancelall;chat.add 0 0 "All crafting cancelled!"`},
	{"ent_kill", `ent kill;chat.add 0 0 "Entity killed!"`},
	{"chat_continuous_stack_enabled", `chat.add 0 0 "Continuous stack inventory enabled!"`},
	{"chat_continuous_stack_disabled", `chat.add 0 0 "Continuous stack inventory disabled!"`},
	{"chat_anti_afk_started", `chat.add 0 0 "Anti-AFK started!"`},
	{"chat_anti_afk_stopped", `chat.add 0 0 "Anti-AFK stopped!"`},
}
