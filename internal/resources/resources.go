// Package resources holds the static, read-only tables describing the
// targeted wire-protocol variant: classes, races, chat message types,
// languages, and well-known channel IDs. Nothing here is mutated at
// runtime.
package resources

// Class identifies a WotLK/Ascension character class.
type Class uint8

const (
	ClassWarrior     Class = 1
	ClassPaladin     Class = 2
	ClassHunter      Class = 3
	ClassRogue       Class = 4
	ClassPriest      Class = 5
	ClassDeathKnight Class = 6
	ClassShaman      Class = 7
	ClassMage        Class = 8
	ClassWarlock     Class = 9
	ClassMonk        Class = 10
	ClassDruid       Class = 11
)

var className = map[Class]string{
	ClassWarrior: "Warrior", ClassPaladin: "Paladin", ClassHunter: "Hunter",
	ClassRogue: "Rogue", ClassPriest: "Priest", ClassDeathKnight: "Death Knight",
	ClassShaman: "Shaman", ClassMage: "Mage", ClassWarlock: "Warlock",
	ClassMonk: "Monk", ClassDruid: "Druid",
}

// Name returns the display name for a class id, or "" if unknown.
func (c Class) Name() string { return className[c] }

// Race identifies a WotLK/Ascension character race.
type Race uint8

const (
	RaceHuman    Race = 1
	RaceOrc      Race = 2
	RaceDwarf    Race = 3
	RaceNightElf Race = 4
	RaceUndead   Race = 5
	RaceTauren   Race = 6
	RaceGnome    Race = 7
	RaceTroll    Race = 8
	RaceGoblin   Race = 9
	RaceBloodElf Race = 10
	RaceDraenei  Race = 11
)

var raceName = map[Race]string{
	RaceHuman: "Human", RaceOrc: "Orc", RaceDwarf: "Dwarf", RaceNightElf: "Night Elf",
	RaceUndead: "Undead", RaceTauren: "Tauren", RaceGnome: "Gnome", RaceTroll: "Troll",
	RaceGoblin: "Goblin", RaceBloodElf: "Blood Elf", RaceDraenei: "Draenei",
}

func (r Race) Name() string { return raceName[r] }

// Language IDs used in CMSG/SMSG_MESSAGECHAT.
const (
	LangUniversal Language = 0
	LangOrcish    Language = 1
	LangDarnassian Language = 2
	LangTaurahe   Language = 3
	LangDwarvish  Language = 6
	LangCommon    Language = 7
	LangDemonic   Language = 8
	LangTitan     Language = 9
	LangThalassian Language = 10
	LangDraconic  Language = 11
	LangGnomish   Language = 13
	LangTroll     Language = 14
	LangGutterspeak Language = 33
	LangDraenei  Language = 35
	LangAddon    Language = 0xFFFFFFFF
)

// Language is the wire's 32-bit chat-language discriminant.
type Language uint32

var hordeRaces = map[Race]bool{
	RaceOrc: true, RaceUndead: true, RaceTauren: true, RaceTroll: true,
	RaceBloodElf: true, RaceGoblin: true,
}

// LanguageForRace returns the default speaking language for a character's
// race: Orcish for Horde races, Common otherwise.
func LanguageForRace(raceID uint8) Language {
	if hordeRaces[Race(raceID)] {
		return LangOrcish
	}
	return LangCommon
}

// Chat type discriminants from SMSG/CMSG_MESSAGECHAT.
const (
	ChatMsgSystem           uint8 = 0x00
	ChatMsgSay              uint8 = 0x01
	ChatMsgParty            uint8 = 0x02
	ChatMsgRaid             uint8 = 0x03
	ChatMsgGuild            uint8 = 0x04
	ChatMsgOfficer          uint8 = 0x05
	ChatMsgYell             uint8 = 0x06
	ChatMsgWhisper          uint8 = 0x07
	ChatMsgWhisperInform    uint8 = 0x09
	ChatMsgEmote            uint8 = 0x0A
	ChatMsgTextEmote        uint8 = 0x0B
	ChatMsgChannel          uint8 = 0x11
	ChatMsgIgnored          uint8 = 0x19
	ChatMsgRaidLeader       uint8 = 0x27
	ChatMsgRaidWarning      uint8 = 0x28
	ChatMsgPartyLeader      uint8 = 0x33
	ChatMsgAchievement      uint8 = 0x30
	ChatMsgGuildAchievement uint8 = 0x31
)

// knownChatTypes lists every chat_type the orchestrator relays (checked
// through KnownChatType after chat.Decode); anything else is silently
// discarded.
var knownChatTypes = map[uint8]bool{
	ChatMsgSystem: true, ChatMsgSay: true, ChatMsgParty: true, ChatMsgRaid: true,
	ChatMsgGuild: true, ChatMsgOfficer: true, ChatMsgYell: true, ChatMsgWhisper: true,
	ChatMsgWhisperInform: true, ChatMsgEmote: true, ChatMsgTextEmote: true,
	ChatMsgChannel: true, ChatMsgIgnored: true, ChatMsgRaidLeader: true,
	ChatMsgRaidWarning: true, ChatMsgPartyLeader: true, ChatMsgAchievement: true,
	ChatMsgGuildAchievement: true,
}

// KnownChatType reports whether chatType is a recognized discriminant.
func KnownChatType(chatType uint8) bool { return knownChatTypes[chatType] }

// Well-known channel IDs by name; unlisted names map to 0. Session.JoinChannel
// sends only the channel name and password, not these ids.
const (
	ChannelGeneral           uint32 = 0x01
	ChannelTrade             uint32 = 0x02
	ChannelLocalDefense      uint32 = 0x16
	ChannelWorldDefense      uint32 = 0x17
	ChannelGuildRecruitment  uint32 = 0x19
	ChannelLookingForGroup   uint32 = 0x1A
)

var channelIDByName = map[string]uint32{
	"general":            ChannelGeneral,
	"trade":              ChannelTrade,
	"localdefense":        ChannelLocalDefense,
	"worlddefense":        ChannelWorldDefense,
	"guildrecruitment":    ChannelGuildRecruitment,
	"lookingforgroup":     ChannelLookingForGroup,
}

// ChannelIDFor maps a channel name to its well-known numeric id, falling
// back to 0 (let the server resolve it) for anything not in the table.
func ChannelIDFor(name string) uint32 {
	return channelIDByName[normalizeChannelKey(name)]
}

func normalizeChannelKey(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r == ' ' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		out = append(out, byte(r))
	}
	return string(out)
}

// Guild event discriminants from SMSG_GUILD_EVENT.
const (
	GuildEventPromoted  uint8 = 0x00
	GuildEventDemoted   uint8 = 0x01
	GuildEventMotd      uint8 = 0x02
	GuildEventJoined    uint8 = 0x03
	GuildEventLeft      uint8 = 0x04
	GuildEventRemoved   uint8 = 0x05
	GuildEventSignedOn  uint8 = 0x0C
	GuildEventSignedOff uint8 = 0x0D
)

var guildEventName = map[uint8]string{
	GuildEventPromoted: "promoted", GuildEventDemoted: "demoted", GuildEventMotd: "motd",
	GuildEventJoined: "joined", GuildEventLeft: "left", GuildEventRemoved: "removed",
	GuildEventSignedOn: "online", GuildEventSignedOff: "offline",
}

// GuildEventName maps a raw event_type to the config key used by guild.<event>,
// or "" if the event_type is not tracked.
func GuildEventName(eventType uint8) string { return guildEventName[eventType] }
