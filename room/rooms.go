package room

// staticRoom is one entry of the startup-time level table: a level id, its
// display name, and the start positions of the flags it owns. Restored from
// the original game's room table (some levels carry no flags at all; the
// largest, "Mushroom Battlefield", carries four).
type staticRoom struct {
	id        uint32
	name      string
	flagSpots []flagSpot
}

type flagSpot struct {
	x, y, z float32
}

// staticRooms is the fixed table loaded once at startup by LoadStaticRooms.
var staticRooms = []staticRoom{
	{4, "Big Boo's Haunt", []flagSpot{{0, 7657, 0}}},
	{5, "Cool, Cool Mountain", []flagSpot{{0, 7657, 0}}},
	{6, "Castle Inside First Level Cave", []flagSpot{{0, 7657, 0}}},
	{7, "Hazy Maze Cave", []flagSpot{{0, 7657, 0}}},
	{8, "Shifting Sand Land", []flagSpot{{0, 7657, 0}}},
	{9, "Bob-omb Battlefield", []flagSpot{{-2384, 260, 6203}}},
	{10, "Snowman's Land", []flagSpot{{0, 7657, 0}}},
	{16, "Castle Grounds", []flagSpot{
		{6300, 910, -5900},
		{-4200, -1300, -5300},
	}},
	{24, "Whomps Fortress", []flagSpot{{0, 7657, 0}}},
	{26, "Castle Courtyard", []flagSpot{{0, 7657, 0}}},
	{27, "Princess's Secret Slide", []flagSpot{{0, 7657, 0}}},
	{36, "Tall, Tall Mountain", []flagSpot{{0, 7657, 0}}},
	{602, "Castle Inside Second Level", []flagSpot{{0, 7657, 0}}},
	{999, "Clouded Ruins", []flagSpot{{0, 7657, 0}}},
	{1000, "Mushroom Battlefield", []flagSpot{
		{9380, 7657, -8980},
		{-5126, 3678, 10106},
		{-14920, 3800, -8675},
		{12043, 3000, 10086},
	}},
	{1001, "CTF/Race Map", []flagSpot{
		{-76, 467, -7768},
		{-76, 467, 7945},
	}},
	{1002, "Starman Fortress", []flagSpot{{0, 7657, 0}}},
}
