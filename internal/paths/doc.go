// Provides platform-appropriate paths for the daemon's runtime files.
//
// All paths follow XDG conventions on Linux and platform-native conventions
// elsewhere. The daemon name "droverd" is used as the subdirectory under
// each base path. Only the master process writes here; workers never touch
// the runtime directory.
package paths
