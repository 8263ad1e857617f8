package pages

import "github.com/a-h/templ"

// Projector is the full-screen output page. It follows the projector
// events on /events and renders whatever the operator pushes:
//
//	update-projection  {"kind":"text","text":"…","reference":"…"}
//	                   {"kind":"image","id":3,"aspect":"cover"}
//	                   {"kind":"video","id":2,"loop":true,"gain":0.7}
//	                   {"kind":"pdf","id":1} or {"kind":"clear"}
//	update-styles      {"background":"#000","color":"#fff","fontSize":64,"fontFamily":"…"}
//	video-control      "play", "pause" or "restart"
//	window-control     {"action":"focus"|"move"|"fullscreen",…}
func Projector() templ.Component {
	return Layout("EasyPresenter Projector", projectorCSS, templ.Raw(projectorBody))
}

const projectorCSS = `
html,body{height:100%;overflow:hidden;background:var(--bg,#000);cursor:none}
#stage{position:fixed;inset:0;display:flex;align-items:center;justify-content:center;transition:opacity .5s}
#stage.out{opacity:0}
#stage img,#stage video,#stage iframe{position:absolute;inset:0;width:100%;height:100%;border:0}
#text{position:relative;z-index:2;max-width:90%;text-align:center;white-space:pre-line;
  color:var(--fg,#fff);font-size:var(--size,64px);font-family:var(--font,system-ui);text-shadow:0 2px 6px #000}
#reference{display:block;margin-top:.6em;font-size:.5em;opacity:.8}
`

const projectorBody = `
<div id="stage"><div id="text"></div></div>
<script>
(function(){
  const params = new URLSearchParams(location.search);
  const stage = document.getElementById('stage');
  const text = document.getElementById('text');
  let video = null;

  function clearMedia(){
    video = null;
    stage.querySelectorAll('img,video,iframe').forEach(e => e.remove());
  }

  function show(p){
    if (!p) return;
    stage.classList.add('out');
    setTimeout(() => { render(p); stage.classList.remove('out'); }, 300);
  }

  function render(p){
    switch (p.kind) {
    case 'image': {
      clearMedia(); text.textContent = '';
      const img = document.createElement('img');
      img.src = '/media/images/' + p.id;
      img.style.objectFit = p.aspect || 'contain';
      stage.prepend(img);
      break;
    }
    case 'video': {
      clearMedia(); text.textContent = '';
      video = document.createElement('video');
      video.src = '/media/videos/' + p.id;
      video.loop = !!p.loop;
      video.volume = typeof p.gain === 'number' ? p.gain : 1;
      video.autoplay = true;
      stage.prepend(video);
      break;
    }
    case 'pdf': {
      clearMedia(); text.textContent = '';
      const f = document.createElement('iframe');
      f.src = '/media/pdfs/' + p.id + '#toolbar=0';
      stage.prepend(f);
      break;
    }
    case 'clear':
      clearMedia(); text.textContent = '';
      break;
    default: {
      text.textContent = p.text || '';
      if (p.reference) {
        const r = document.createElement('span');
        r.id = 'reference';
        r.textContent = p.reference;
        text.appendChild(r);
      }
    }
    }
  }

  function style(s){
    if (!s) return;
    const root = document.documentElement.style;
    if (s.background) root.setProperty('--bg', s.background);
    if (s.color) root.setProperty('--fg', s.color);
    if (s.fontSize) root.setProperty('--size', s.fontSize + 'px');
    if (s.fontFamily) root.setProperty('--font', s.fontFamily);
  }

  function control(a){
    if (!video) return;
    if (a === 'play') video.play();
    else if (a === 'pause') video.pause();
    else if (a === 'restart') { video.currentTime = 0; video.play(); }
  }

  function windowControl(c){
    switch (c.action) {
    case 'focus': window.focus(); break;
    case 'move': try { window.moveTo(c.x || 0, c.y || 0); } catch (e) {} break;
    case 'fullscreen':
      if (c.on && !document.fullscreenElement) document.documentElement.requestFullscreen().catch(() => {});
      if (!c.on && document.fullscreenElement) document.exitFullscreen();
      break;
    }
  }

  const es = new EventSource('/events?role=projector&window=' + encodeURIComponent(params.get('window') || ''));
  const on = (name, fn) => es.addEventListener(name, e => fn(JSON.parse(e.data)));
  on('update-projection', show);
  on('update-styles', style);
  on('video-control', control);
  on('window-control', windowControl);
  document.addEventListener('dblclick', () => windowControl({action:'fullscreen', on:!document.fullscreenElement}));
})();
</script>`
